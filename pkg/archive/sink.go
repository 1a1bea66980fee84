package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Sink writes archive files under a single root directory
type Sink struct {
	root string
}

// NewSink creates a sink rooted at the given directory, creating it if needed
func NewSink(root string) (*Sink, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Sink{root: root}, nil
}

// Path derives the destination path, relative to the sink root, for one
// attachment. createdAt must already be in the partitioning timezone.
func Path(createdAt time.Time, itemID string, attachmentIndex int) string {
	return filepath.Join(
		fmt.Sprintf("yyyy=%04d", createdAt.Year()),
		fmt.Sprintf("mm=%02d", int(createdAt.Month())),
		fmt.Sprintf("dd=%02d", createdAt.Day()),
		fmt.Sprintf("%s_%d.png", itemID, attachmentIndex),
	)
}

// Write stores data at the given root-relative path and returns the
// write timestamp. The write is atomic: bytes land in a temporary file
// that is renamed into place.
func (s *Sink) Write(relPath string, data []byte) (time.Time, error) {
	target := filepath.Join(s.root, relPath)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return time.Time{}, fmt.Errorf("failed to create partition directory: %w", err)
	}

	tempFile := target + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = out.Write(data)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return time.Time{}, fmt.Errorf("failed to write archive data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return time.Time{}, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return time.Time{}, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return time.Now().UTC(), nil
}

// Root returns the sink's root directory
func (s *Sink) Root() string {
	return s.root
}
