package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "herald/pkg/logx"
)

// fileStore is a dependency-free persistence backend: one append-only
// JSON Lines file of run entries.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
	file *os.File
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	runsPath := filepath.Join(dir, base) + ".runs.jsonl"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(runsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{log: log, path: runsPath, file: f}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *fileStore) AppendRun(ctx context.Context, e RunEntry) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("run log closed")
	}
	return json.NewEncoder(s.file).Encode(e)
}

func (s *fileStore) Recent(ctx context.Context, limit int) ([]RunEntry, error) {
	_ = ctx
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	path := s.path
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var all []RunEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e RunEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			// tolerate torn trailing writes
			continue
		}
		all = append(all, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	// newest first
	out := make([]RunEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
