package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ScratchManager handles creation and cleanup of scratch files for
// document recognition. Every created file comes with a cleanup function;
// callers must defer it so files are removed on every exit path.
type ScratchManager struct {
	baseDir string
}

// NewScratchManager creates a scratch manager rooted at baseDir.
func NewScratchManager(baseDir string) *ScratchManager {
	return &ScratchManager{baseDir: baseDir}
}

// CreateFile writes data to a uniquely named scratch file and returns the
// path and a cleanup function.
func (m *ScratchManager) CreateFile(data []byte, suffix string) (string, func(), error) {
	if err := os.MkdirAll(m.baseDir, 0700); err != nil {
		return "", nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	filename := fmt.Sprintf("doc_%s%s", uuid.New().String(), suffix)
	filePath := filepath.Join(m.baseDir, filename)

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return "", nil, fmt.Errorf("failed to write scratch file: %w", err)
	}

	cleanup := func() {
		_ = os.Remove(filePath)
	}

	return filePath, cleanup, nil
}

// BaseDir returns the base directory for scratch files.
func (m *ScratchManager) BaseDir() string {
	return m.baseDir
}
