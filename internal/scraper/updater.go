package scraper

import (
	"context"
	"crypto/sha256"
	"net/http"

	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/network"
)

// Update downloads remoteURL and swaps it into localPath when the content
// differs. A script that does not compile is never installed. It reports
// whether the file changed.
func Update(ctx context.Context, client network.Doer, remoteURL, localPath string) (bool, error) {
	body, err := network.Get(ctx, client, remoteURL, http.Header{})
	if err != nil {
		return false, err
	}

	if local, err := filesystem.API().ReadFile(localPath); err == nil {
		if sha256.Sum256(local) == sha256.Sum256(body) {
			return false, nil
		}
	}

	tmp := localPath + ".tmp"
	if err := filesystem.API().WriteFile(tmp, body, 0o644); err != nil {
		return false, err
	}
	defer func() { _ = filesystem.API().Remove(tmp) }()

	if _, err := Compile(tmp); err != nil {
		return false, err
	}

	if err := filesystem.API().Rename(tmp, localPath); err != nil {
		return false, err
	}

	Forget(localPath)
	return true, nil
}
