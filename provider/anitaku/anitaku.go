// Package anitaku is the Server 3 backend. Anitaku lists subbed and dubbed
// releases as separate shows, with "(Dub)" in the title of the latter.
package anitaku

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/source"
)

const (
	Base = "https://anitaku.to"
	Ajax = "https://ajax.gogo-load.com"
)

// Backend implements source.Backend for Anitaku. Its ids are bare slugs.
type Backend struct {
	client network.Doer
	base   string
	ajax   string
}

func New(client network.Doer) *Backend {
	return &Backend{client: client, base: Base, ajax: Ajax}
}

// WithBase points the backend at another site and ajax root.
func (b *Backend) WithBase(base, ajax string) *Backend {
	b.base, b.ajax = base, ajax
	return b
}

func (b *Backend) ID() source.ProviderID {
	return source.Anitaku
}

func (b *Backend) header() http.Header {
	return http.Header{
		"User-Agent": {constant.UserAgent},
		"Referer":    {b.base + "/"},
	}
}

func parseSearch(doc *goquery.Document, base string) []*source.Candidate {
	candidates := []*source.Candidate{}

	doc.Find(".last_episodes ul.items li").Each(func(_ int, s *goquery.Selection) {
		title := s.Find("p.name a").First()
		link := s.Find("div.img a").First()
		img := s.Find("div.img a img").First()
		if title.Length() == 0 || link.Length() == 0 || img.Length() == 0 {
			return
		}

		href := strings.TrimSpace(link.AttrOr("href", ""))
		name := strings.TrimSpace(title.Text())
		language := "Japanese"
		if strings.Contains(strings.ToLower(name), "dub") {
			language = "English"
		}

		candidates = append(candidates, &source.Candidate{
			ID:                 strings.TrimPrefix(href, "/category/"),
			Title:              name,
			URL:                base + href,
			Image:              img.AttrOr("src", ""),
			ReleaseDate:        strings.TrimSpace(s.Find("p.released").Text()),
			Language:           language,
			AvailableLanguages: []string{language},
			Provider:           source.Anitaku,
		})
	})

	return candidates
}

func (b *Backend) Search(ctx context.Context, q string) ([]*source.Candidate, error) {
	doc, err := network.GetDocument(ctx, b.client, b.base+"/search.html?keyword="+url.QueryEscape(q), b.header())
	if err != nil {
		return nil, err
	}

	return parseSearch(doc, b.base), nil
}

var episodeLabel = regexp.MustCompile(`(?i)\b(?:EP|Episode)\b`)

// parseEpisodes reads anchors whose text, or .name child, holds the episode
// number. The result is sorted ascending.
func parseEpisodes(doc *goquery.Document, selector, base string) []*source.Episode {
	episodes := []*source.Episode{}

	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}

		text := s.Find(".name").First().Text()
		if text == "" {
			text = s.Text()
		}
		label := strings.TrimSpace(episodeLabel.ReplaceAllString(text, ""))

		n, err := strconv.Atoi(label)
		if err != nil {
			log.Debugf("anitaku: skipping episode %q", label)
			return
		}

		episodes = append(episodes, &source.Episode{
			ID:     strings.TrimPrefix(href, "/"),
			Number: n,
			URL:    base + "/" + strings.TrimPrefix(href, "/"),
		})
	})

	slices.SortStableFunc(episodes, func(a, b *source.Episode) int {
		return a.Number - b.Number
	})

	return episodes
}

// Episodes reads the category page. When it exposes a movie id the full
// list is loaded from the ajax endpoint, otherwise the inline list is used.
func (b *Backend) Episodes(ctx context.Context, slug string) ([]*source.Episode, error) {
	doc, err := network.GetDocument(ctx, b.client, b.base+"/category/"+slug, b.header())
	if err != nil {
		return nil, err
	}

	movieID, hasMovie := doc.Find("input#movie_id").First().Attr("value")
	alias, hasAlias := doc.Find("input#alias_anime").First().Attr("value")

	if hasMovie && hasAlias {
		u := fmt.Sprintf("%s/ajax/load-list-episode?ep_start=0&ep_end=9999&id=%s&default_ep=0&alias=%s",
			b.ajax, url.QueryEscape(movieID), url.QueryEscape(alias))

		list, err := network.GetDocument(ctx, b.client, u, b.header())
		if err != nil {
			return nil, err
		}
		return parseEpisodes(list, "li a", b.base), nil
	}

	return parseEpisodes(doc, "#episode_related li a", b.base), nil
}

func absolute(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// Stream returns the embed page of the first mirror. The embed is left to
// the player to extract.
func (b *Backend) Stream(ctx context.Context, episodeID string) (*source.Stream, error) {
	doc, err := network.GetDocument(ctx, b.client, b.base+"/"+strings.TrimPrefix(episodeID, "/"), b.header())
	if err != nil {
		return nil, err
	}

	embed := ""
	doc.Find(".anime_muti_link ul li a[data-video]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		embed = absolute(strings.TrimSpace(s.AttrOr("data-video", "")))
		return embed == ""
	})
	if embed == "" {
		embed = absolute(strings.TrimSpace(doc.Find(".play-video iframe").First().AttrOr("src", "")))
	}
	if embed == "" {
		return nil, fmt.Errorf("anitaku: no stream for %s", episodeID)
	}

	return &source.Stream{
		URL:       embed,
		Quality:   "default",
		IsM3U8:    strings.Contains(embed, ".m3u8"),
		Headers:   map[string]string{"Referer": b.base + "/"},
		Provider:  source.Anitaku,
		EpisodeID: episodeID,
	}, nil
}
