// Package hianime is the Server 2 backend. Pages are scraped with goquery
// and streams come from the MegaCloud embed API.
package hianime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/samber/mo"
)

const (
	Base   = "https://hianime.bz"
	prefix = "hianime:"
)

// ErrEncrypted is returned when the embed only serves encrypted sources.
var ErrEncrypted = errors.New("hianime: encrypted sources are not supported")

// Backend implements source.Backend for HiAnime.
type Backend struct {
	client network.Doer
	base   string
}

func New(client network.Doer) *Backend {
	return &Backend{client: client, base: Base}
}

// WithBase points the backend at another site root.
func (b *Backend) WithBase(base string) *Backend {
	b.base = base
	return b
}

func (b *Backend) ID() source.ProviderID {
	return source.HiAnime
}

func (b *Backend) header(referer string) http.Header {
	return http.Header{
		"User-Agent": {constant.UserAgent},
		"Referer":    {referer},
	}
}

func (b *Backend) ajax(referer string) http.Header {
	h := b.header(referer)
	h.Set("X-Requested-With", "XMLHttpRequest")
	return h
}

func count(s *goquery.Selection) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s.First().Text()))
	return n
}

// parseSearch extracts candidates from a search page.
func parseSearch(doc *goquery.Document, base string) []*source.Candidate {
	candidates := []*source.Candidate{}

	doc.Find(".flw-item").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find(".dynamic-name").First().Text())

		href, _ := s.Find("a").First().Attr("href")
		href, _, _ = strings.Cut(href, "?")
		id := href[strings.LastIndex(href, "/")+1:]

		if id == "" || name == "" {
			return
		}

		img := s.Find("img").First()
		poster := img.AttrOr("data-src", img.AttrOr("src", ""))

		sub, dub := count(s.Find(".tick-sub")), count(s.Find(".tick-dub"))
		languages := []string{}
		if sub > 0 || dub == 0 {
			languages = append(languages, "Japanese")
		}
		if dub > 0 {
			languages = append(languages, "English")
		}
		multi := sub > 0 && dub > 0

		c := &source.Candidate{
			ID:                 prefix + id,
			Title:              name,
			URL:                base + "/" + id,
			Image:              poster,
			Language:           "Japanese",
			IsMultiAudio:       multi,
			AvailableLanguages: languages,
			Provider:           source.HiAnime,
		}
		if multi {
			c.Language = "Multi"
		}
		if sub > 0 {
			c.EpisodeCount = mo.Some(sub)
		}

		candidates = append(candidates, c)
	})

	return candidates
}

func (b *Backend) Search(ctx context.Context, q string) ([]*source.Candidate, error) {
	doc, err := network.GetDocument(ctx, b.client, b.base+"/search?keyword="+url.QueryEscape(q), b.header(b.base))
	if err != nil {
		return nil, err
	}

	return parseSearch(doc, b.base), nil
}

// numericID extracts the trailing number of a slug such as "one-piece-100".
func numericID(slug string) (int, error) {
	n, err := strconv.Atoi(slug[strings.LastIndex(slug, "-")+1:])
	if err != nil {
		return 0, fmt.Errorf("hianime: no numeric id in %q", slug)
	}
	return n, nil
}

type htmlResponse struct {
	HTML string `json:"html"`
}

func parseEpisodes(doc *goquery.Document, slug, base string) []*source.Episode {
	episodes := []*source.Episode{}

	doc.Find(".ep-item").Each(func(_ int, s *goquery.Selection) {
		epID := s.AttrOr("data-id", "")
		if epID == "" {
			return
		}

		n, err := strconv.Atoi(s.AttrOr("data-number", ""))
		if err != nil {
			log.Debugf("hianime: skipping episode %s of %s", epID, slug)
			return
		}

		title := strings.TrimSpace(s.Find(".e-dynamic-name, .ep-name").First().Text())
		if title == "" {
			title = s.AttrOr("title", "")
		}

		episodes = append(episodes, &source.Episode{
			ID:       prefix + slug + "|" + epID,
			Number:   n,
			URL:      base + "/watch/" + slug + "?ep=" + epID,
			Title:    title,
			IsFiller: s.HasClass("ssl-item-filler"),
		})
	})

	return episodes
}

func (b *Backend) Episodes(ctx context.Context, variantID string) ([]*source.Episode, error) {
	slug := strings.TrimPrefix(variantID, prefix)

	id, err := numericID(slug)
	if err != nil {
		return nil, err
	}

	var resp htmlResponse
	if err := network.GetJSON(ctx, b.client, fmt.Sprintf("%s/ajax/v2/episode/list/%d", b.base, id), b.ajax(b.base+"/"+slug), &resp); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.HTML))
	if err != nil {
		return nil, err
	}

	return parseEpisodes(doc, slug, b.base), nil
}
