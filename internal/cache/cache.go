// Package cache stores short-lived regional scraper responses as JSON files.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/where"
)

const TTL = 7 * 24 * time.Hour

// Dir is the root of the scraper cache. Tests may point it elsewhere.
var Dir = func() string {
	return filepath.Join(where.Cache(), "scrapers")
}

func dir() string {
	d := Dir()
	_ = filesystem.API().MkdirAll(d, os.ModePerm)
	return d
}

// GenerateKey hashes a query and its namespace. Case and spaces in the query
// are ignored.
func GenerateKey(query, namespace string) string {
	sanitized := strings.ToLower(strings.ReplaceAll(query, " ", "")) + namespace
	hash := sha256.Sum256([]byte(sanitized))
	return hex.EncodeToString(hash[:])
}

// Read decodes the entry under key into target. It reports false for a
// missing, expired or corrupt entry.
func Read(key string, target any) bool {
	path := filepath.Join(dir(), key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > TTL {
		return false
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, target) == nil
}

// Write stores data under key, replacing the file only once it is complete.
func Write(key string, data any) error {
	path := filepath.Join(dir(), key)
	tmp := path + ".tmp"

	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if err := filesystem.API().WriteFile(tmp, encoded, 0o644); err != nil {
		return err
	}

	return filesystem.API().Rename(tmp, path)
}

// Prune removes expired entries and returns how many were deleted.
func Prune() int {
	removed := 0
	_ = filesystem.API().Walk(dir(), func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > TTL {
			if filesystem.API().Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	return removed
}

// CollectGarbage prunes in the background.
func CollectGarbage() {
	go Prune()
}
