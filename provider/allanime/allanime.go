// Package allanime is the Server 1 backend. It talks to the AllAnime
// GraphQL API, which only accepts queries over GET.
package allanime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

const (
	Endpoint = "https://api.allanime.day/api"
	Base     = "https://allanime.day"
	Referer  = "https://allanime.to/"
	Site     = "https://allanime.to"

	prefix = "allanime:"
)

// Backend implements source.Backend for AllAnime.
type Backend struct {
	client   network.Doer
	endpoint string
	base     string
}

// New returns a backend using client, usually network.Browser.
func New(client network.Doer) *Backend {
	return &Backend{client: client, endpoint: Endpoint, base: Base}
}

// WithEndpoint points the backend at another API endpoint and media base.
func (b *Backend) WithEndpoint(endpoint, base string) *Backend {
	b.endpoint, b.base = endpoint, base
	return b
}

func (b *Backend) ID() source.ProviderID {
	return source.AllAnime
}

func (b *Backend) header() http.Header {
	return http.Header{
		"User-Agent": {constant.UserAgent},
		"Referer":    {Referer},
	}
}

type envelope[T any] struct {
	Data   T               `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

func query[T any](ctx context.Context, b *Backend, gql string, vars map[string]any) (T, error) {
	var zero T

	encoded, err := json.Marshal(vars)
	if err != nil {
		return zero, err
	}

	u := b.endpoint + "?" + url.Values{
		"variables": {string(encoded)},
		"query":     {gql},
	}.Encode()

	var env envelope[T]
	if err := network.GetJSON(ctx, b.client, u, b.header(), &env); err != nil {
		return zero, err
	}
	if len(env.Errors) > 0 && string(env.Errors) != "null" {
		return zero, fmt.Errorf("allanime: %s", env.Errors)
	}

	return env.Data, nil
}

const searchQuery = `query($search: SearchInput, $limit: Int, $page: Int, $translationType: VaildTranslationTypeEnumType, $countryOrigin: VaildCountryOriginEnumType) {
  shows(search: $search, limit: $limit, page: $page, translationType: $translationType, countryOrigin: $countryOrigin) {
    edges { _id name englishName nativeName thumbnail availableEpisodes }
  }
}`

type show struct {
	ID                string `json:"_id"`
	Name              string `json:"name"`
	EnglishName       string `json:"englishName"`
	NativeName        string `json:"nativeName"`
	Thumbnail         string `json:"thumbnail"`
	AvailableEpisodes struct {
		Sub int `json:"sub"`
		Dub int `json:"dub"`
		Raw int `json:"raw"`
	} `json:"availableEpisodes"`
}

// Search looks up shows by name. Counts are the subbed episode counts.
func (b *Backend) Search(ctx context.Context, q string) ([]*source.Candidate, error) {
	data, err := query[struct {
		Shows *struct {
			Edges []show `json:"edges"`
		} `json:"shows"`
	}](ctx, b, searchQuery, map[string]any{
		"search": map[string]any{
			"allowAdult":   false,
			"allowUnknown": false,
			"query":        q,
		},
		"limit":           40,
		"page":            1,
		"translationType": "sub",
		"countryOrigin":   "ALL",
	})
	if err != nil {
		return nil, err
	}
	if data.Shows == nil {
		return []*source.Candidate{}, nil
	}

	return lo.Map(data.Shows.Edges, func(s show, _ int) *source.Candidate {
		var languages []string
		if s.AvailableEpisodes.Sub > 0 {
			languages = append(languages, "Japanese")
		}
		if s.AvailableEpisodes.Dub > 0 {
			languages = append(languages, "English")
		}
		multi := len(languages) == 2

		c := &source.Candidate{
			ID:                 prefix + s.ID,
			Title:              s.Name,
			URL:                Site + "/anime/" + s.ID,
			Image:              s.Thumbnail,
			Language:           lo.Ternary(multi, "Multi", "Japanese"),
			IsMultiAudio:       multi,
			AvailableLanguages: languages,
			Provider:           source.AllAnime,
		}
		if s.AvailableEpisodes.Sub > 0 {
			c.EpisodeCount = mo.Some(s.AvailableEpisodes.Sub)
		}
		return c
	}), nil
}

const episodesQuery = `query($showId: String!) {
  show(_id: $showId) { _id availableEpisodesDetail }
}`

// splitVariant decodes "allanime:<id>:<mode>". The legacy "<id>-dub" form
// is still understood.
func splitVariant(variantID string) (showID, mode string) {
	id := strings.TrimPrefix(variantID, prefix)

	switch {
	case strings.HasSuffix(id, ":dub"):
		return strings.TrimSuffix(id, ":dub"), "dub"
	case strings.HasSuffix(id, ":sub"):
		return strings.TrimSuffix(id, ":sub"), "sub"
	case strings.HasSuffix(id, "-dub"):
		return strings.TrimSuffix(id, "-dub"), "dub"
	default:
		return id, "sub"
	}
}

// Episodes lists the episodes of a variant in ascending order. Episode
// numbers that are not whole numbers, such as recaps numbered 12.5, are
// skipped.
func (b *Backend) Episodes(ctx context.Context, variantID string) ([]*source.Episode, error) {
	showID, mode := splitVariant(variantID)

	data, err := query[struct {
		Show *struct {
			Detail map[string][]string `json:"availableEpisodesDetail"`
		} `json:"show"`
	}](ctx, b, episodesQuery, map[string]any{"showId": showID})
	if err != nil {
		return nil, err
	}
	if data.Show == nil {
		return []*source.Episode{}, nil
	}

	list := data.Show.Detail[mode]
	if len(list) > 1 {
		first, _ := strconv.ParseFloat(list[0], 64)
		last, _ := strconv.ParseFloat(list[len(list)-1], 64)
		if first > last {
			list = slices.Clone(list)
			slices.Reverse(list)
		}
	}

	episodes := make([]*source.Episode, 0, len(list))
	for _, ep := range list {
		n, err := strconv.Atoi(ep)
		if err != nil {
			log.Debugf("allanime: skipping episode %q of %s", ep, showID)
			continue
		}

		episodes = append(episodes, &source.Episode{
			ID:     fmt.Sprintf("%s%s|%s|%s", prefix, showID, ep, mode),
			Number: n,
			URL:    fmt.Sprintf("%s/anime/%s/episodes/%s/%s", Site, showID, mode, ep),
		})
	}

	return episodes, nil
}
