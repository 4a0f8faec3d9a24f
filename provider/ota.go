package provider

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/nezuko-cli/nezuko/internal/scraper"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/where"
)

// Install downloads a regional script into the sources directory. The file
// is named after the last path segment of rawURL. It returns the script
// name and whether anything changed on disk.
func Install(ctx context.Context, client network.Doer, rawURL string) (string, bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false, fmt.Errorf("invalid source url %q", rawURL)
	}

	file := path.Base(u.Path)
	if !strings.HasSuffix(file, CustomProviderExtension) {
		return "", false, fmt.Errorf("%s is not a lua script", rawURL)
	}

	name := strings.TrimSuffix(file, CustomProviderExtension)
	changed, err := scraper.Update(ctx, client, rawURL, filepath.Join(where.Sources(), file))
	if err != nil {
		return name, false, fmt.Errorf("install %s: %w", name, err)
	}

	if changed {
		log.Infof("installed regional source %s from %s", name, rawURL)
	} else {
		log.Infof("regional source %s is up to date", name)
	}

	return name, changed, nil
}
