package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nezuko-cli/nezuko/catalog"
	"github.com/nezuko-cli/nezuko/config"
	"github.com/nezuko-cli/nezuko/gateway"
	"github.com/nezuko-cli/nezuko/history"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/mapping"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/provider"
	"github.com/nezuko-cli/nezuko/provider/allanime"
	"github.com/nezuko-cli/nezuko/provider/anitaku"
	"github.com/nezuko-cli/nezuko/provider/hianime"
	"github.com/nezuko-cli/nezuko/session"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// engine holds the process-wide services shared by every session.
type engine struct {
	gateway  *gateway.Gateway
	catalog  *catalog.Client
	mappings *mapping.Cache
	registry *provider.Registry
}

func newGateway() *gateway.Gateway {
	return gateway.New(gateway.Options{
		Client:      network.Client,
		Concurrency: int64(viper.GetInt(key.GatewayConcurrency)),
		CacheTTL:    config.GatewayCacheTTL(),
		Retries:     viper.GetInt(key.GatewayRetries),
		RetryDelay:  config.GatewayRetryDelay(),
	})
}

func primaryBackends() ([]source.Backend, error) {
	names := viper.GetStringSlice(key.EngineProviders)
	if len(names) == 0 {
		names = lo.Map(source.Primary, func(p source.ProviderID, _ int) string {
			return string(p)
		})
	}

	var backends []source.Backend
	for _, name := range lo.Uniq(names) {
		id, err := source.ParseProvider(name)
		if err != nil {
			return nil, err
		}

		var b source.Backend
		switch id {
		case source.AllAnime:
			b = allanime.New(network.Browser)
		case source.HiAnime:
			b = hianime.New(network.Browser)
		case source.Anitaku:
			b = anitaku.New(network.Browser)
		}
		backends = append(backends, provider.WithTimeout(b, config.ProviderTimeout()))
	}

	return backends, nil
}

// newEngine wires the gateway, catalog, mapping cache and provider registry.
// Regional scripts are loaded unless withRegional is false.
func newEngine(withRegional bool) (*engine, error) {
	gw := newGateway()

	backends, err := primaryBackends()
	if err != nil {
		return nil, err
	}

	registry := provider.NewRegistry(backends...)
	if withRegional {
		n := registry.LoadRegional()
		log.Debugf("loaded %d regional sources", n)
	}

	return &engine{
		gateway: gw,
		catalog: catalog.New(gw),
		mappings: mapping.New(mapping.Options{
			Path:        where.Mappings(),
			LockPath:    where.MappingsLock(),
			TTL:         config.MappingTTL(),
			NegativeTTL: config.MappingNegativeTTL(),
			Fetcher:     mapping.NewAniZip(gw),
		}),
		registry: registry,
	}, nil
}

func (e *engine) session(mode source.Audio) *session.Session {
	opts := session.Options{
		Backends: e.registry.Primary(),
		Router:   e.registry,
		Mappings: e.mappings,
		Mode:     mode,
		Timeout:  config.ProviderTimeout(),
	}

	if e.registry.HasRegional() {
		opts.Regional = e.registry
		opts.RegionalCheck = viper.GetBool(key.EngineRegional)
	}

	return session.New(opts)
}

func parseMediaID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid anilist id %q", arg)
	}
	return id, nil
}

func openHistory(ctx context.Context) (*history.Store, error) {
	return history.Open(ctx, where.Database())
}

// audioMode picks the audio mode for a title: the --audio flag, then the
// stored preference, then the configured default.
func audioMode(ctx context.Context, cmd *cobra.Command, store *history.Store, mediaID int) (source.Audio, error) {
	if cmd.Flags().Changed("audio") {
		return source.ParseMode(lo.Must(cmd.Flags().GetString("audio")))
	}

	if store != nil {
		pref, err := store.Preference(ctx, mediaID)
		if err != nil {
			log.Warn(err)
		} else if p, ok := pref.Get(); ok {
			return p.Mode, nil
		}
	}

	return source.ParseMode(viper.GetString(key.EngineAudioMode))
}

func addAudioFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("audio", "a", "", "Audio mode to resolve (sub or dub)")
	lo.Must0(cmd.RegisterFlagCompletionFunc("audio", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(source.Sub), string(source.Dub)}, cobra.ShellCompDirectiveNoFileComp
	}))
}
