package hianime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/samber/lo"
)

type server struct {
	ID   string
	Name string
	Type string
}

func parseServers(doc *goquery.Document) []server {
	var servers []server

	doc.Find(".server-item[data-id]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("data-id", "")
		if id == "" {
			return
		}
		servers = append(servers, server{
			ID:   id,
			Name: strings.TrimSpace(s.Text()),
			Type: s.AttrOr("data-type", "sub"),
		})
	})

	return servers
}

// pickServer prefers HD-1, then HD-2, then any server of the category,
// then anything at all.
func pickServer(servers []server, category string) (server, bool) {
	preferences := []func(server) bool{
		func(s server) bool {
			return s.Type == category && (strings.Contains(s.Name, "HD-1") || strings.Contains(s.Name, "Vidstreaming"))
		},
		func(s server) bool {
			return s.Type == category && (strings.Contains(s.Name, "HD-2") || strings.Contains(s.Name, "MegaCloud"))
		},
		func(s server) bool { return s.Type == category },
	}

	for _, p := range preferences {
		if s, ok := lo.Find(servers, p); ok {
			return s, true
		}
	}

	return lo.First(servers)
}

type track struct {
	File    string `json:"file"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Default bool   `json:"default"`
}

type skip struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type embedSources struct {
	Sources json.RawMessage `json:"sources"`
	Tracks  []track         `json:"tracks"`
	Intro   *skip           `json:"intro"`
	Outro   *skip           `json:"outro"`
}

func interval(s *skip) *source.Interval {
	if s == nil {
		return nil
	}
	i := &source.Interval{Start: s.Start, End: s.End}
	if !i.Valid() {
		return nil
	}
	return i
}

// Stream resolves "hianime:<slug>|<episode>[|<category>]". The category
// defaults to sub.
func (b *Backend) Stream(ctx context.Context, episodeID string) (*source.Stream, error) {
	parts := strings.Split(strings.TrimPrefix(episodeID, prefix), "|")
	if len(parts) < 2 {
		return nil, fmt.Errorf("hianime: malformed episode id %q", episodeID)
	}
	epID, category := parts[1], "sub"
	if len(parts) > 2 {
		category = parts[2]
	}

	var servers htmlResponse
	if err := network.GetJSON(ctx, b.client, b.base+"/ajax/v2/episode/servers?episodeId="+url.QueryEscape(epID), b.ajax(b.base), &servers); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(servers.HTML))
	if err != nil {
		return nil, err
	}

	srv, ok := pickServer(parseServers(doc), category)
	if !ok {
		return nil, fmt.Errorf("hianime: no servers for episode %s", epID)
	}

	var link struct {
		Link string `json:"link"`
	}
	if err := network.GetJSON(ctx, b.client, b.base+"/ajax/v2/episode/sources?id="+url.QueryEscape(srv.ID), b.ajax(b.base), &link); err != nil {
		return nil, err
	}

	embed, err := url.Parse(link.Link)
	if err != nil || embed.Host == "" {
		return nil, fmt.Errorf("hianime: bad embed link %q", link.Link)
	}

	sourceID := embed.Path[strings.LastIndex(embed.Path, "/")+1:]
	if sourceID == "" {
		return nil, fmt.Errorf("hianime: no source id in %q", link.Link)
	}

	origin := embed.Scheme + "://" + embed.Host
	var es embedSources
	if err := network.GetJSON(ctx, b.client, origin+"/embed-2/v2/e-1/getSources?id="+url.QueryEscape(sourceID), b.ajax(origin+"/"), &es); err != nil {
		return nil, err
	}

	var files []struct {
		File string `json:"file"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(es.Sources, &files); err != nil {
		var encrypted string
		if json.Unmarshal(es.Sources, &encrypted) == nil {
			return nil, ErrEncrypted
		}
		return nil, fmt.Errorf("hianime: unexpected sources: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("hianime: no sources for episode %s", epID)
	}

	subtitles := lo.FilterMap(es.Tracks, func(t track, _ int) (source.Subtitle, bool) {
		if t.Kind != "captions" && t.Kind != "subtitles" {
			return source.Subtitle{}, false
		}
		return source.Subtitle{
			Label:   lo.Ternary(t.Label != "", t.Label, "English"),
			File:    t.File,
			Kind:    "captions",
			Default: t.Default,
		}, true
	})

	first := files[0]
	return &source.Stream{
		URL:       first.File,
		Quality:   "auto",
		IsM3U8:    first.Type == "hls" || strings.Contains(first.File, ".m3u8"),
		Subtitles: subtitles,
		Headers: map[string]string{
			"Referer":    origin + "/",
			"Origin":     origin,
			"User-Agent": constant.UserAgent,
		},
		Provider:  source.HiAnime,
		EpisodeID: episodeID,
		Intro:     interval(es.Intro),
		Outro:     interval(es.Outro),
	}, nil
}
