// Package source defines the shared vocabulary between provider backends and
// the resolution engine: candidates, variants, episodes and streams.
package source

import (
	"context"
	"fmt"
	"strings"
)

// ProviderID names a provider. The primary providers form a closed set;
// regional Lua sources all report Regional.
type ProviderID string

const (
	AllAnime ProviderID = "allanime"
	HiAnime  ProviderID = "hianime"
	Anitaku  ProviderID = "anitaku"
	Regional ProviderID = "regional"
)

// Primary lists the primary providers in server priority order.
var Primary = []ProviderID{AllAnime, HiAnime, Anitaku}

// ParseProvider validates a primary provider name.
func ParseProvider(name string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(name)))
	for _, p := range Primary {
		if p == id {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", name)
}

// Backend is implemented by every provider.
//
// Search must return an empty slice, not an error, when nothing matches.
// Errors are reserved for transport failures.
type Backend interface {
	ID() ProviderID
	Search(ctx context.Context, query string) ([]*Candidate, error)
	Episodes(ctx context.Context, variantID string) ([]*Episode, error)
	Stream(ctx context.Context, episodeID string) (*Stream, error)
}
