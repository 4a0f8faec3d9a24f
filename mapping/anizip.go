package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nezuko-cli/nezuko/gateway"
	"github.com/nezuko-cli/nezuko/log"
)

// AniZipEndpoint is the public ani.zip mappings API.
const AniZipEndpoint = "https://api.ani.zip/mappings"

// Querier is satisfied by *gateway.Gateway.
type Querier interface {
	Query(ctx context.Context, req gateway.Request) ([]byte, error)
}

// AniZip fetches mappings from ani.zip through the gateway.
type AniZip struct {
	q        Querier
	endpoint string
}

// NewAniZip returns a fetcher for the public endpoint.
func NewAniZip(q Querier) *AniZip {
	return &AniZip{q: q, endpoint: AniZipEndpoint}
}

// WithEndpoint returns a copy using a different endpoint.
func (a *AniZip) WithEndpoint(endpoint string) *AniZip {
	return &AniZip{q: a.q, endpoint: endpoint}
}

type anizipResponse struct {
	Titles   map[string]string `json:"titles"`
	Episodes map[string]struct {
		Title    map[string]string `json:"title"`
		Overview string            `json:"overview"`
		Image    string            `json:"image"`
	} `json:"episodes"`
	Mappings struct {
		AnilistID int               `json:"anilist_id"`
		MalID     int               `json:"mal_id"`
		AnidbID   int               `json:"anidb_id"`
		Sites     map[string]any    `json:"sites"`
	} `json:"mappings"`
}

// Fetch implements Fetcher. A 404 surfaces as an error, which the cache
// records as "no mapping".
func (a *AniZip) Fetch(ctx context.Context, mediaID int) (*Mapping, error) {
	header := make(http.Header)
	header.Set("Accept", "application/json")

	body, err := a.q.Query(ctx, gateway.Request{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s?anilist_id=%d", a.endpoint, mediaID),
		Header: header,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch mapping %d: %w", mediaID, err)
	}

	m, err := parseAniZip(mediaID, body)
	if err != nil {
		return nil, err
	}

	log.Infof("mapping %d: episode_count=%d mal_id=%d", mediaID, m.EpisodeCount, m.MalID)
	return m, nil
}

func parseAniZip(mediaID int, body []byte) (*Mapping, error) {
	var resp anizipResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode mapping %d: %w", mediaID, err)
	}

	m := &Mapping{
		AnilistID: mediaID,
		MalID:     resp.Mappings.MalID,
		AnidbID:   resp.Mappings.AnidbID,
	}
	if resp.Mappings.AnilistID != 0 {
		m.AnilistID = resp.Mappings.AnilistID
	}

	if len(resp.Titles) > 0 {
		m.SeriesTitles = make(map[string]string, len(resp.Titles))
		for lang, title := range resp.Titles {
			if title != "" {
				m.SeriesTitles[lang] = title
			}
		}
	}

	if resp.Episodes != nil {
		m.EpisodeCount = len(resp.Episodes)
		m.Titles = make(map[string]string)
		m.Overviews = make(map[string]string)
		m.Images = make(map[string]string)

		for k, ep := range resp.Episodes {
			if t := ep.Title["en"]; t != "" {
				m.Titles[k] = t
			} else if t := ep.Title["x-jat"]; t != "" {
				m.Titles[k] = t
			}
			if ep.Overview != "" {
				m.Overviews[k] = ep.Overview
			}
			if ep.Image != "" {
				m.Images[k] = ep.Image
			}
		}
	}

	site := func(name string) string {
		s, _ := resp.Mappings.Sites[name].(string)
		return s
	}
	m.AllAnimeID = site("allanime")
	m.GogoanimeID = site("gogoanime")
	m.ZoroID = site("zoro")

	return m, nil
}
