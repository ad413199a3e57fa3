package usecase

import "testing"

func TestFromFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"125090547_Ramesh_Kumar_WL.pdf", "Ramesh Kumar"},
		{"anita-sharma-report.pdf", "Anita Sharma"},
		{"JOHN_o'neil_RESULT.PDF", "John Oneil"},
		{"A_B_Cd.pdf", "Cd"},
		{"12345.pdf", ""},
		{"", ""},
		{"inbox/2024/99_PRIYA__NAIR.pdf", "Priya Nair"},
	}
	for _, tt := range tests {
		if got := FromFilename(tt.in); got != tt.want {
			t.Errorf("FromFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"dir/sub/file.name.pdf", "file.name"},
		{`C:\reports\x_y.pdf`, "x_y"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Stem(tt.in); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsLabBypass(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"125090547_Ramesh_Kumar_WL.pdf", true},
		{"125090547_x_wl.PDF", true},
		{"ramesh_kumar_wl.pdf", false},
		{"125090547_Ramesh_Kumar.pdf", false},
		{"125090547_wl.pdf", false},
	}
	for _, tt := range tests {
		if got := IsLabBypass(tt.in); got != tt.want {
			t.Errorf("IsLabBypass(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
