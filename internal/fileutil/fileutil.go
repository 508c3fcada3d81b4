package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// EnsureDir creates dir (and parents) when missing.
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory path required")
	}
	return os.MkdirAll(dir, 0o755)
}

// RemoveIfExists deletes path when present. Renders always start from a
// clean output file; a stale result from an earlier run must not survive.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CopyFileVerified copies src to dst and confirms the bytes that landed on
// disk hash the same as the source. Any failure removes the partial dst.
func CopyFileVerified(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copy %s: %w", src, err)
	}

	dstSum, dstSize, err := hashFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("verify copy: %w", err)
	}
	if dstSize != written || !bytes.Equal(dstSum, srcHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy verification failed: %s does not match %s", dst, src)
	}
	return nil
}

func hashFile(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return nil, 0, err
	}
	return hasher.Sum(nil), size, nil
}
