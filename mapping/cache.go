package mapping

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/metafates/gache"
	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/samber/mo"
)

// Fetcher resolves a mapping from the remote cross-reference service.
type Fetcher interface {
	Fetch(ctx context.Context, mediaID int) (*Mapping, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, mediaID int) (*Mapping, error)

func (f FetcherFunc) Fetch(ctx context.Context, mediaID int) (*Mapping, error) {
	return f(ctx, mediaID)
}

// record is the stored form. A nil Mapping is a cached miss.
type record struct {
	StoredAt time.Time `json:"stored_at"`
	Mapping  *Mapping  `json:"mapping"`
}

type records = map[string]*record

// Options configures a Cache.
type Options struct {
	// Path of the JSON store.
	Path string

	// LockPath, if set, names a file lock taken around writes so that
	// concurrent processes do not clobber each other.
	LockPath string

	TTL         time.Duration
	NegativeTTL time.Duration
	Fetcher     Fetcher
	Now         func() time.Time
}

const (
	DefaultTTL         = 24 * time.Hour
	DefaultNegativeTTL = 30 * time.Minute
)

// Cache is a time-bounded local store in front of a Fetcher. It is safe for
// concurrent use and shared across sessions.
type Cache struct {
	store       *gache.Cache[records]
	lock        *flock.Flock
	ttl         time.Duration
	negativeTTL time.Duration
	fetcher     Fetcher
	now         func() time.Time

	mu sync.Mutex
}

// New constructs a Cache.
func New(opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.NegativeTTL <= 0 {
		opts.NegativeTTL = DefaultNegativeTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Cache{
		store: gache.New[records](&gache.Options{
			Path:       opts.Path,
			FileSystem: &filesystem.GacheFs{},
		}),
		ttl:         opts.TTL,
		negativeTTL: opts.NegativeTTL,
		fetcher:     opts.Fetcher,
		now:         opts.Now,
	}

	if opts.LockPath != "" && filesystem.OnDisk() {
		c.lock = flock.New(opts.LockPath)
	}

	return c
}

func (c *Cache) fresh(r *record) bool {
	ttl := c.ttl
	if r.Mapping == nil {
		ttl = c.negativeTTL
	}
	return c.now().Sub(r.StoredAt) < ttl
}

func (c *Cache) lookup(mediaID int) (*record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, _, err := c.store.Get()
	if err != nil || data == nil {
		return nil, false
	}

	r, ok := data[strconv.Itoa(mediaID)]
	if !ok || r == nil || !c.fresh(r) {
		return nil, false
	}
	return r, true
}

func (c *Cache) put(mediaID int, m *Mapping) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lock != nil {
		if err := c.lock.Lock(); err != nil {
			log.Warnf("mapping: lock: %v", err)
			return
		}
		defer func() { _ = c.lock.Unlock() }()
	}

	data, _, err := c.store.Get()
	if err != nil || data == nil {
		data = make(records)
	}

	next := make(records, len(data)+1)
	for k, r := range data {
		if r != nil && c.fresh(r) {
			next[k] = r
		}
	}
	next[strconv.Itoa(mediaID)] = &record{StoredAt: c.now(), Mapping: m}

	if err := c.store.Set(next); err != nil {
		log.Warnf("mapping: store: %v", err)
	}
}

// Get returns the mapping for mediaID. It never fails: a lookup error is
// logged, cached as a miss for the negative TTL, and reported as None.
func (c *Cache) Get(ctx context.Context, mediaID int) mo.Option[*Mapping] {
	if r, ok := c.lookup(mediaID); ok {
		log.Debugf("mapping: cache hit for %d", mediaID)
		return mo.EmptyableToOption(r.Mapping)
	}

	if c.fetcher == nil {
		return mo.None[*Mapping]()
	}

	m, err := c.fetcher.Fetch(ctx, mediaID)
	if err != nil {
		if ctx.Err() != nil {
			return mo.None[*Mapping]()
		}
		log.Warnf("mapping: %v", err)
		m = nil
	}

	c.put(mediaID, m)
	return mo.EmptyableToOption(m)
}

// Clear removes every stored record.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Set(make(records))
}
