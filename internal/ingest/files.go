package ingest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrNoInput = errors.New("[Ingest] input file not found")

// OpenInput opens path for reading. A missing file reports ErrNoInput.
func OpenInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, path)
	}
	if err != nil {
		return nil, fmt.Errorf("[Ingest] failed to open %s: %w", path, err)
	}
	return f, nil
}

// WriteFile writes path through a temporary file in the same directory
// and renames it into place, so a failed write leaves no partial output.
func WriteFile(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("[Ingest] failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("[Ingest] failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[Ingest] failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("[Ingest] failed to move output into place: %w", err)
	}
	return nil
}
