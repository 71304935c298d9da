package cookies

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SafeCopy copies a SQLite cookie store (and its -wal and -shm companions
// when present) into a temp directory, so the parse never contends with
// the browser that owns the live database.
//
// The caller must run cleanup when done with the copy.
func SafeCopy(srcPath string) (tempDir string, cleanup func(), err error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return "", nil, fmt.Errorf("cookie store not found: %s", srcPath)
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%s is a directory, expected a cookie store file or 'auto'", srcPath)
	}
	if info.Size() == 0 {
		return "", nil, fmt.Errorf("cookie store at %s is empty", srcPath)
	}

	tempDir, err = os.MkdirTemp("", "tagwatch-cookies-*")
	if err != nil {
		return "", nil, fmt.Errorf("cannot create temp directory: %w", err)
	}
	cleanup = func() {
		os.RemoveAll(tempDir)
	}

	baseName := filepath.Base(srcPath)
	if err := copyStoreFile(srcPath, filepath.Join(tempDir, baseName)); err != nil {
		cleanup()
		return "", nil, err
	}
	// WAL and SHM are best effort; a checkpointed database has neither.
	for _, suffix := range []string{"-wal", "-shm"} {
		companion := srcPath + suffix
		if _, err := os.Stat(companion); err == nil {
			_ = copyStoreFile(companion, filepath.Join(tempDir, baseName+suffix))
		}
	}
	return tempDir, cleanup, nil
}

func copyStoreFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying cookie store: %w", err)
	}
	return nil
}
