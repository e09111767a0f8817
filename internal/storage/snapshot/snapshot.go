package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/jgivc/cpldtracker/internal/entity"
	"github.com/jgivc/cpldtracker/internal/util"
)

type writer struct {
	fs   afero.Fs
	path string
	log  *slog.Logger
}

func NewWriter(path string, log *slog.Logger) *writer {
	return NewWriterWithFS(afero.NewOsFs(), path, log)
}

func NewWriterWithFS(fs afero.Fs, path string, log *slog.Logger) *writer {
	return &writer{
		fs:   fs,
		path: path,
		log:  log.With(slog.String("item", "SnapshotWriter")),
	}
}

// Write serializes snap and rewrites the target file only when the content
// hash differs from what is already on disk. The snapshot often feeds a
// version-control pipeline, so an unchanged run must not touch the file.
// Reports whether a write happened.
func (w *writer) Write(snap *entity.Snapshot) (bool, error) {
	data, err := marshal(snap)
	if err != nil {
		return false, fmt.Errorf("cannot marshal snapshot: %w", err)
	}

	// A read failure here means no comparable old content. Write anyway and
	// let the write surface any real filesystem problem.
	old, err := afero.ReadFile(w.fs, w.path)
	if err == nil && util.ContentHash(old) == util.ContentHash(data) {
		w.log.Info("Snapshot unchanged", slog.String("path", w.path))

		return false, nil
	}

	if err := w.fs.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return false, fmt.Errorf("cannot create snapshot dir: %w", err)
	}
	if err := afero.WriteFile(w.fs, w.path, data, 0o644); err != nil {
		return false, fmt.Errorf("cannot write snapshot: %w", err)
	}

	w.log.Info("Snapshot written", slog.String("path", w.path), slog.Int("bytes", len(data)))

	return true, nil
}

// marshal produces the canonical on-disk form: 2-space indent, key order as
// declared (data keys in processing order), HTML and non-ASCII unescaped.
func marshal(snap *entity.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
