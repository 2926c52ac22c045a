// Package archive packs per-speaker audio files into a single zip.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Error signals a failure while packaging the result archive.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Archiver writes zip archives.
type Archiver struct{}

// New creates an archiver.
func New() *Archiver {
	return &Archiver{}
}

// Create writes a zip at archivePath containing the given files. Members
// carry the base name of each input path and are written in sorted name
// order, so the same inputs always produce the same member layout.
func (a *Archiver) Create(archivePath string, files []string) error {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return filepath.Base(sorted[i]) < filepath.Base(sorted[j])
	})

	out, err := os.Create(archivePath)
	if err != nil {
		return &Error{Message: "cannot create archive file", Err: err}
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, path := range sorted {
		if err := addFile(zw, path); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return &Error{Message: "cannot finalize archive", Err: err}
	}
	return nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &Error{Message: fmt.Sprintf("cannot read %s for archiving", filepath.Base(path)), Err: err}
	}
	defer f.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return &Error{Message: fmt.Sprintf("cannot add %s to archive", filepath.Base(path)), Err: err}
	}
	if _, err := io.Copy(w, f); err != nil {
		return &Error{Message: fmt.Sprintf("cannot add %s to archive", filepath.Base(path)), Err: err}
	}
	return nil
}
