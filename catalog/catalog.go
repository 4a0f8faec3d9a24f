package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/nezuko-cli/nezuko/log"
)

// Endpoint is the public AniList GraphQL endpoint.
const Endpoint = "https://graphql.anilist.co"

// Querier executes GraphQL requests. *gateway.Gateway satisfies it.
type Querier interface {
	GraphQL(ctx context.Context, endpoint, query string, vars map[string]any, out any) error
}

// Client resolves media records through a Querier.
type Client struct {
	q        Querier
	endpoint string
}

// New returns a Client for the public endpoint.
func New(q Querier) *Client {
	return &Client{q: q, endpoint: Endpoint}
}

// WithEndpoint returns a copy of c that talks to endpoint.
func (c *Client) WithEndpoint(endpoint string) *Client {
	return &Client{q: c.q, endpoint: endpoint}
}

// GetByID returns the media record with the given AniList id.
func (c *Client) GetByID(ctx context.Context, id int) (*Media, error) {
	log.Infof("Fetching media %d from Anilist", id)

	var data struct {
		Media *Media `json:"Media"`
	}
	if err := c.q.GraphQL(ctx, c.endpoint, byIDQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, fmt.Errorf("get media %d: %w", id, err)
	}

	if data.Media == nil {
		return nil, fmt.Errorf("media %d not found", id)
	}

	return data.Media, nil
}

// Filters narrow a catalog search. Zero fields are ignored.
type Filters struct {
	Search  string
	Year    int
	Season  string
	Format  string
	Status  string
	Genres  []string
	Sort    string
	Page    int
	PerPage int
}

// Page is one page of search results.
type Page struct {
	Media   []*Media
	HasNext bool
}

// Search runs a filtered catalog search. Results are sorted by trending
// unless Filters.Sort is set.
func (c *Client) Search(ctx context.Context, f Filters) (*Page, error) {
	query, vars := f.build()
	log.Infof("Searching Anilist with %v", vars)

	var data struct {
		Page struct {
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			Media []*Media `json:"media"`
		} `json:"Page"`
	}
	if err := c.q.GraphQL(ctx, c.endpoint, query, vars, &data); err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	return &Page{Media: data.Page.Media, HasNext: data.Page.PageInfo.HasNextPage}, nil
}

// Trending returns one page of currently trending titles.
func (c *Client) Trending(ctx context.Context, page, perPage int) ([]*Media, error) {
	var data struct {
		Page struct {
			Media []*Media `json:"media"`
		} `json:"Page"`
	}
	vars := map[string]any{"page": max(page, 1), "perPage": perPageOr(perPage, 20)}
	if err := c.q.GraphQL(ctx, c.endpoint, trendingQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}

	return data.Page.Media, nil
}

func perPageOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

func (f Filters) build() (string, map[string]any) {
	vars := map[string]any{
		"page":    max(f.Page, 1),
		"perPage": perPageOr(f.PerPage, 24),
		"type":    "ANIME",
		"isAdult": false,
	}
	defs := []string{"$page:Int", "$perPage:Int", "$type:MediaType", "$isAdult:Boolean"}
	uses := []string{"type:$type", "isAdult:$isAdult"}

	add := func(name, kind string, value any) {
		vars[name] = value
		defs = append(defs, "$"+name+":"+kind)
		uses = append(uses, name+":$"+name)
	}

	if f.Search != "" {
		add("search", "String", f.Search)
	}
	if f.Year > 0 {
		add("seasonYear", "Int", f.Year)
	}
	if f.Season != "" {
		add("season", "MediaSeason", strings.ToUpper(f.Season))
	}
	if f.Format != "" {
		add("format", "MediaFormat", strings.ToUpper(f.Format))
	}
	if f.Status != "" {
		add("status", "MediaStatus", strings.ToUpper(f.Status))
	}
	if len(f.Genres) > 0 {
		add("genre_in", "[String]", f.Genres)
	}

	sort := f.Sort
	if sort == "" {
		sort = "TRENDING_DESC"
	}
	add("sort", "[MediaSort]", []string{sort})

	query := fmt.Sprintf(`
query(%s) {
  Page(page: $page, perPage: $perPage) {
    pageInfo { hasNextPage }
    media(%s) {%s}
  }
}`, strings.Join(defs, ","), strings.Join(uses, ","), mediaFields)

	return query, vars
}
