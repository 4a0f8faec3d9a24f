// Package version checks for newer releases.
package version

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/metafates/gache"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/where"
)

// ReleasesURL is the GitHub endpoint of the latest release.
var ReleasesURL = "https://api.github.com/repos/nezuko-cli/nezuko/releases/latest"

var versionCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// Latest returns the newest released version without the "v" prefix. The
// answer is cached for two days.
func Latest(ctx context.Context) (string, error) {
	ver, expired, err := versionCacher.Get()
	if err == nil && !expired && ver != "" {
		return ver, nil
	}

	var release struct {
		TagName string `json:"tag_name"`
	}

	header := http.Header{
		"User-Agent": {constant.Nezuko + "/" + constant.Version},
		"Accept":     {"application/vnd.github+json"},
	}
	if err := network.GetJSON(ctx, network.Client, ReleasesURL, header, &release); err != nil {
		return "", err
	}

	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	version := strings.TrimPrefix(release.TagName, "v")
	_ = versionCacher.Set(version)
	return version, nil
}
