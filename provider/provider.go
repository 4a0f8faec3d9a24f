// Package provider wires the primary backends and the regional Lua sources
// behind one router.
package provider

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/provider/custom"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/nezuko-cli/nezuko/util"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// CustomProviderExtension is the file extension of regional scripts.
const CustomProviderExtension = ".lua"

// Provider describes an installed regional script.
type Provider struct {
	ID           string
	Name         string
	Path         string
	CreateSource func() (*custom.Source, error)
}

func (p *Provider) String() string {
	return p.Name
}

// Customs returns every installed regional script.
func Customs() []*Provider {
	providers, _ := CustomProviders()
	return providers
}

// Get finds a regional script by name.
func Get(name string) (*Provider, bool) {
	return lo.Find(Customs(), func(p *Provider) bool {
		return p.Name == name
	})
}

func CustomProviders() ([]*Provider, error) {
	files, err := filesystem.API().ReadDir(where.Sources())
	if err != nil {
		return nil, err
	}

	var providers []*Provider
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != CustomProviderExtension {
			continue
		}

		path := filepath.Join(where.Sources(), f.Name())
		name := util.FileStem(f.Name())

		providers = append(providers, &Provider{
			ID:   custom.IDfromName(name),
			Name: name,
			Path: path,
			CreateSource: func() (*custom.Source, error) {
				return custom.LoadSource(path)
			},
		})
	}

	return providers, nil
}

// ErrUnroutable is returned for an id no registered backend owns.
var ErrUnroutable = errors.New("no provider for id")

// Registry routes variant and episode ids to the backend that issued them
// and fans regional searches out over every loaded script.
type Registry struct {
	mu       sync.RWMutex
	primary  map[source.ProviderID]source.Backend
	order    []source.Backend
	regional map[string]source.Backend
}

func NewRegistry(backends ...source.Backend) *Registry {
	r := &Registry{
		primary:  make(map[source.ProviderID]source.Backend),
		regional: make(map[string]source.Backend),
	}
	for _, b := range backends {
		if _, dup := r.primary[b.ID()]; dup {
			continue
		}
		r.primary[b.ID()] = b
		r.order = append(r.order, b)
	}
	return r
}

// AddRegional registers a regional backend under its script name.
func (r *Registry) AddRegional(name string, b source.Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regional[name] = b
}

// LoadRegional loads every installed script. Scripts that fail to load are
// logged and skipped. It returns the number loaded.
func (r *Registry) LoadRegional() int {
	loaded := 0
	for _, p := range Customs() {
		s, err := p.CreateSource()
		if err != nil {
			log.Warnf("regional source %s: %v", p.Name, err)
			continue
		}
		r.AddRegional(p.Name, s)
		loaded++
	}
	return loaded
}

// Primary returns the primary backends in registration order.
func (r *Registry) Primary() []source.Backend {
	return r.order
}

// Regional returns the names of the loaded regional scripts, sorted.
func (r *Registry) Regional() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Keys(r.regional)
	sort.Strings(names)
	return names
}

// HasRegional reports whether any regional script is loaded.
func (r *Registry) HasRegional() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.regional) > 0
}

// Route finds the backend owning id. Ids without a known prefix are bare
// Anitaku slugs.
func (r *Registry) Route(id string) (source.Backend, error) {
	if name, _, ok := custom.ParseID(id); ok {
		r.mu.RLock()
		b, found := r.regional[name]
		r.mu.RUnlock()
		if !found {
			return nil, fmt.Errorf("%w %q: regional source %s is not loaded", ErrUnroutable, id, name)
		}
		return b, nil
	}

	owner := source.Anitaku
	for _, p := range []source.ProviderID{source.AllAnime, source.HiAnime} {
		if strings.HasPrefix(id, string(p)+":") {
			owner = p
			break
		}
	}

	b, ok := r.primary[owner]
	if !ok {
		return nil, fmt.Errorf("%w %q: %s is not enabled", ErrUnroutable, id, owner)
	}
	return b, nil
}

func (r *Registry) Episodes(ctx context.Context, variantID string) ([]*source.Episode, error) {
	b, err := r.Route(variantID)
	if err != nil {
		return nil, err
	}
	return b.Episodes(ctx, variantID)
}

func (r *Registry) Stream(ctx context.Context, episodeID string) (*source.Stream, error) {
	b, err := r.Route(episodeID)
	if err != nil {
		return nil, err
	}
	return b.Stream(ctx, episodeID)
}

// Search queries every regional script concurrently. A failing script
// contributes nothing; the error is only returned when all of them fail.
func (r *Registry) Search(ctx context.Context, query string) ([]*source.Candidate, error) {
	r.mu.RLock()
	names := lo.Keys(r.regional)
	sort.Strings(names)
	backends := lo.Map(names, func(n string, _ int) source.Backend { return r.regional[n] })
	r.mu.RUnlock()

	if len(backends) == 0 {
		return []*source.Candidate{}, nil
	}

	batches := make([][]*source.Candidate, len(backends))
	errs := make([]error, len(backends))

	var g errgroup.Group
	for i, b := range backends {
		g.Go(func() error {
			batches[i], errs[i] = b.Search(ctx, query)
			if errs[i] != nil {
				log.Warnf("regional %s %q: %v", names[i], query, errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	if lo.EveryBy(errs, func(err error) bool { return err != nil }) {
		return nil, errors.Join(errs...)
	}

	return lo.Flatten(batches), nil
}

type timeoutBackend struct {
	source.Backend
	timeout time.Duration
}

// WithTimeout bounds every Search of b. A search that runs out of time
// returns no candidates and no error.
func WithTimeout(b source.Backend, d time.Duration) source.Backend {
	if d <= 0 {
		return b
	}
	return &timeoutBackend{Backend: b, timeout: d}
}

func (t *timeoutBackend) Search(ctx context.Context, query string) ([]*source.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	found, err := t.Backend.Search(ctx, query)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Debugf("%s search %q timed out", t.ID(), query)
		return []*source.Candidate{}, nil
	}
	return found, err
}
