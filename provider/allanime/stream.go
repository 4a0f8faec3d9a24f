package allanime

import (
	"cmp"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/source"
)

const streamQuery = `query($showId: String!, $translationType: VaildTranslationTypeEnumType!, $episodeString: String!) {
  episode(showId: $showId, translationType: $translationType, episodeString: $episodeString) { sourceUrls }
}`

type sourceURL struct {
	URL  string `json:"sourceUrl"`
	Name string `json:"sourceName"`
	Type string `json:"type"`
}

// ErrNoPlayable is returned when none of an episode's sources resolve.
var ErrNoPlayable = errors.New("allanime: no playable sources")

var ranking = []string{"apivtwo", "luf-mp4", "default", "fm-hls", "s-mp4", "yt-mp4", "sakura"}

// rank scores a source by name. Higher is better and unknown names score 1.
func rank(name string) int {
	n := strings.ToLower(name)
	for i, r := range ranking {
		if strings.Contains(n, r) {
			return 10 - i
		}
	}
	return 1
}

// decode reverses the obfuscation of source urls: an optional "--"
// prefix followed by hex pairs, each byte XORed with 56.
func decode(s string) string {
	s = strings.TrimPrefix(s, "--")
	raw, err := hex.DecodeString(s[:len(s)/2*2])
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for _, c := range raw {
		sb.WriteByte(c ^ 56)
	}

	return strings.ReplaceAll(sb.String(), "repackager.wixmp.com/", "")
}

func (b *Backend) absolute(link string) string {
	if strings.HasPrefix(link, "/") {
		return b.base + link
	}
	return link
}

// resolve turns a source url into a media url. Links to the clock
// endpoint are followed through its JSON twin.
func (b *Backend) resolve(ctx context.Context, raw string) (string, error) {
	if strings.HasPrefix(raw, "http") {
		return raw, nil
	}

	decoded := decode(raw)
	if decoded == "" {
		return "", fmt.Errorf("allanime: cannot decode %q", raw)
	}

	link := b.absolute(decoded)
	if !strings.Contains(link, "clock") || strings.Contains(link, ".json") {
		return link, nil
	}

	var clock struct {
		Links []struct {
			Link string `json:"link"`
			Src  string `json:"src"`
		} `json:"links"`
	}
	if err := network.GetJSON(ctx, b.client, strings.Replace(link, "clock", "clock.json", 1), b.header(), &clock); err != nil {
		return "", err
	}

	for _, l := range clock.Links {
		if l.Link != "" {
			return b.absolute(l.Link), nil
		}
		if l.Src != "" {
			return b.absolute(l.Src), nil
		}
	}

	return "", fmt.Errorf("allanime: empty clock response for %s", link)
}

// splitEpisode decodes "allanime:<show>|<episode>|<mode>".
func splitEpisode(episodeID string) (showID, episode, mode string, err error) {
	parts := strings.Split(strings.TrimPrefix(episodeID, prefix), "|")
	if len(parts) < 3 {
		return "", "", "", fmt.Errorf("allanime: malformed episode id %q", episodeID)
	}
	return parts[0], parts[1], parts[2], nil
}

// Stream tries the sources of an episode best first and returns the first
// that resolves.
func (b *Backend) Stream(ctx context.Context, episodeID string) (*source.Stream, error) {
	showID, ep, mode, err := splitEpisode(episodeID)
	if err != nil {
		return nil, err
	}

	data, err := query[struct {
		Episode *struct {
			SourceURLs []sourceURL `json:"sourceUrls"`
		} `json:"episode"`
	}](ctx, b, streamQuery, map[string]any{
		"showId":          showID,
		"translationType": mode,
		"episodeString":   ep,
	})
	if err != nil {
		return nil, err
	}
	if data.Episode == nil || len(data.Episode.SourceURLs) == 0 {
		return nil, ErrNoPlayable
	}

	sources := slices.Clone(data.Episode.SourceURLs)
	slices.SortStableFunc(sources, func(a, b sourceURL) int {
		return cmp.Compare(rank(b.Name), rank(a.Name))
	})

	for _, s := range sources {
		link, err := b.resolve(ctx, s.URL)
		if err != nil {
			log.Debugf("allanime: source %s: %v", s.Name, err)
			continue
		}

		return &source.Stream{
			URL:      link,
			Quality:  "default",
			IsM3U8:   s.Type == "hls" || strings.Contains(link, ".m3u8") || strings.Contains(s.URL, ".m3u8"),
			Provider: source.AllAnime,
			Headers: map[string]string{
				"Referer":    b.base,
				"Origin":     b.base,
				"User-Agent": constant.UserAgent,
			},
			EpisodeID: episodeID,
		}, nil
	}

	return nil, ErrNoPlayable
}
