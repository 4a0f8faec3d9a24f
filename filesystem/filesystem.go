// Package filesystem holds the afero backend every package reads and writes
// through. Tests swap it for an in-memory one.
package filesystem

import "github.com/spf13/afero"

var (
	backend = afero.Afero{Fs: afero.NewOsFs()}
	onDisk  = true
)

func API() afero.Afero {
	return backend
}

// OnDisk reports whether the backend writes to the real filesystem. File
// locks only mean something when it does.
func OnDisk() bool {
	return onDisk
}

func SetOsFs() {
	backend, onDisk = afero.Afero{Fs: afero.NewOsFs()}, true
}

func SetMemMapFs() {
	backend, onDisk = afero.Afero{Fs: afero.NewMemMapFs()}, false
}
