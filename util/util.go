// Package util holds small helpers shared by the CLI and the providers.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nezuko-cli/nezuko/filesystem"
	"golang.org/x/exp/constraints"
	"golang.org/x/term"
)

var (
	unsafeChars = regexp.MustCompile(`[\\/<>:;"'|?!*{}#%&^+,~\s]`)
	underscores = regexp.MustCompile(`__+`)
	edges       = regexp.MustCompile(`^[_\-.]+|[_\-.]+$`)
)

// SanitizeFilename turns s into a name that is valid on every platform.
func SanitizeFilename(s string) string {
	s = unsafeChars.ReplaceAllString(s, "_")
	s = underscores.ReplaceAllString(s, "_")
	return edges.ReplaceAllString(s, "")
}

// Quantify formats count with the singular or plural noun.
func Quantify(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalSize is the size of the terminal attached to stdout.
func TerminalSize() (width, height int, err error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// FileStem is the base name of path without its extension.
func FileStem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// PrintErasable shows msg on the current line and returns a function that
// wipes it. Nothing is printed when stdout is not a terminal.
func PrintErasable(msg string) (eraser func()) {
	if !stdoutIsTerminal() {
		return func() {}
	}

	fmt.Fprintf(os.Stdout, "\r%s", msg)
	return func() {
		fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", utf8.RuneCountInString(msg)))
	}
}

// Ignore calls f and drops its error. Handy with defer.
func Ignore(f func() error) {
	_ = f()
}

func Max[T constraints.Ordered](items ...T) (max T) {
	for i, item := range items {
		if i == 0 || item > max {
			max = item
		}
	}
	return
}

func Min[T constraints.Ordered](items ...T) (min T) {
	for i, item := range items {
		if i == 0 || item < min {
			min = item
		}
	}
	return
}

// Delete removes path, recursively when it is a directory.
func Delete(path string) error {
	fs := filesystem.API()
	info, err := fs.Stat(path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return fs.RemoveAll(path)
	}
	return fs.Remove(path)
}
