package filesystem

import (
	"io"
	"os"
)

// GacheFs routes gache file access through the active backend, so JSON
// caches land in memory during tests.
type GacheFs struct{}

func (GacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return backend.OpenFile(name, flag, perm)
}

func (GacheFs) MkdirAll(path string, perm os.FileMode) error {
	return backend.MkdirAll(path, perm)
}
