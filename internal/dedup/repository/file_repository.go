package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	dedupdomain "report-intake/internal/dedup/domain"
)

// fileDedupRepository keeps both sets in memory behind a mutex and stores
// each as a JSON array of strings. persistMu orders whole Persist calls so an
// older snapshot is never renamed over a newer one.
type fileDedupRepository struct {
	mu            sync.RWMutex
	persistMu     sync.Mutex
	succeededPath string
	failedPath    string
	succeeded     map[string]struct{}
	failed        map[string]struct{}
}

// NewFileDedupRepository creates a file-backed store. An empty failedPath is
// derived from succeededPath ("state.json" -> "state_failed.json").
func NewFileDedupRepository(succeededPath, failedPath string) DedupRepository {
	if failedPath == "" {
		failedPath = FailedPathFor(succeededPath)
	}
	return &fileDedupRepository{
		succeededPath: succeededPath,
		failedPath:    failedPath,
		succeeded:     make(map[string]struct{}),
		failed:        make(map[string]struct{}),
	}
}

// FailedPathFor derives the permanently-failed file from the succeeded one
func FailedPathFor(succeededPath string) string {
	ext := filepath.Ext(succeededPath)
	return strings.TrimSuffix(succeededPath, ext) + "_failed" + ext
}

func (r *fileDedupRepository) IsResolved(ctx context.Context, messageID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.succeeded[messageID]; ok {
		return true, nil
	}
	_, ok := r.failed[messageID]
	return ok, nil
}

func (r *fileDedupRepository) RecordSucceeded(ctx context.Context, messageID, account string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failed, messageID)
	r.succeeded[messageID] = struct{}{}
	return nil
}

func (r *fileDedupRepository) RecordFailed(ctx context.Context, messageID, account string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.succeeded[messageID]; ok {
		return nil
	}
	r.failed[messageID] = struct{}{}
	return nil
}

func (r *fileDedupRepository) Stats(ctx context.Context) (dedupdomain.Counts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return dedupdomain.Counts{Succeeded: len(r.succeeded), Failed: len(r.failed)}, nil
}

// Persist writes the succeeded file before the failed one. Each write goes to
// a temp file that is renamed into place, so a crash leaves either the old or
// the new version of each file and a recorded success is never lost.
func (r *fileDedupRepository) Persist(ctx context.Context) error {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	r.mu.RLock()
	succeeded := sortedKeys(r.succeeded)
	failed := sortedKeys(r.failed)
	r.mu.RUnlock()

	if err := writeJSONAtomic(r.succeededPath, succeeded); err != nil {
		return fmt.Errorf("persist succeeded set: %w", err)
	}
	if err := writeJSONAtomic(r.failedPath, failed); err != nil {
		return fmt.Errorf("persist failed set: %w", err)
	}
	return nil
}

// Load reads both files; missing files are empty sets. An id present in both
// files counts as succeeded.
func (r *fileDedupRepository) Load(ctx context.Context) error {
	succeeded, err := readJSONSet(r.succeededPath)
	if err != nil {
		return fmt.Errorf("load succeeded set: %w", err)
	}
	failed, err := readJSONSet(r.failedPath)
	if err != nil {
		return fmt.Errorf("load failed set: %w", err)
	}
	for id := range succeeded {
		delete(failed, id)
	}

	r.mu.Lock()
	r.succeeded = succeeded
	r.failed = failed
	r.mu.Unlock()
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readJSONSet(path string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return set, nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func writeJSONAtomic(path string, ids []string) error {
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	// best effort: make the rename itself durable
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}
