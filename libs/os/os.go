package os

import (
	"bytes"
	"fmt"
	"os"

	"github.com/creachadair/atomicfile"
)

func Exit(s string) {
	fmt.Printf(s + "\n")
	os.Exit(1)
}

// EnsureDir ensures the given directory exists, creating it if necessary.
// Errors if the path already exists as a non-directory.
func EnsureDir(dir string, mode os.FileMode) error {
	info, err := os.Stat(dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}
	if info != nil && !info.IsDir() {
		return fmt.Errorf("path %q already exists as a non-directory", dir)
	}
	if err := os.MkdirAll(dir, mode); err != nil {
		return fmt.Errorf("could not create directory %q: %w", dir, err)
	}
	return nil
}

func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

func ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// WriteFileAtomic replaces filePath with contents. Readers see either the old
// or the new contents, never a partial write.
func WriteFileAtomic(filePath string, contents []byte, mode os.FileMode) error {
	_, err := atomicfile.WriteAll(filePath, bytes.NewReader(contents), mode)
	return err
}
