package logger

import "testing"

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l, err := New(level)
		if err != nil {
			t.Errorf("New(%q) failed: %v", level, err)
			continue
		}
		l.Sync()
	}
	if _, err := New("loud"); err == nil {
		t.Error("Expected an error for an unknown level")
	}
}
