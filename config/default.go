// Package config registers every setting with its default and loads the
// TOML file and NEZUKO_* environment overrides through viper.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/spf13/viper"
)

// Field is one registered setting. Value is the default and fixes the type.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Env is the environment variable overriding the field.
func (f *Field) Env() string {
	return strings.ToUpper(constant.Nezuko + "_" + EnvKeyReplacer.Replace(f.Key))
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return fmt.Sprintf("%T", f.Value)
	}
}

// Parse converts command-line arguments to a value of the field's type.
// Only string lists take more than one argument.
func (f *Field) Parse(args []string) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: missing value", f.Key)
	}

	if _, ok := f.Value.([]string); ok {
		var list []string
		for _, a := range args {
			for _, item := range strings.Split(a, ",") {
				if item = strings.TrimSpace(item); item != "" {
					list = append(list, item)
				}
			}
		}
		return list, nil
	}

	if len(args) > 1 {
		return nil, fmt.Errorf("%s takes a single %s value", f.Key, f.typeName())
	}

	raw := args[0]
	switch f.Value.(type) {
	case string:
		return raw, nil
	case int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid integer %q", f.Key, raw)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid boolean %q", f.Key, raw)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%s: unsupported type %s", f.Key, f.typeName())
	}
}

func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
		Env         string `json:"env"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
		Env:         f.Env(),
	})
}

func highlight(v any) string {
	switch value := v.(type) {
	case bool:
		if value {
			return style.Fg(color.Green)("true")
		}
		return style.Fg(color.Red)("false")
	case string:
		return style.Fg(color.Yellow)(value)
	default:
		return fmt.Sprint(value)
	}
}

// Pretty renders the field for config info.
func (f *Field) Pretty() string {
	label := style.Fg(color.Blue)
	lines := []string{
		style.Faint(f.Description),
		label("Key:") + "     " + style.Fg(color.Purple)(f.Key),
		label("Env:") + "     " + f.Env(),
		label("Value:") + "   " + highlight(viper.Get(f.Key)),
		label("Default:") + " " + highlight(f.Value),
		label("Type:") + "    " + f.typeName(),
	}
	return strings.Join(lines, "\n")
}

// Default maps every key to its field.
var Default = make(map[string]Field)

// EnvExposed lists the keys bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.EngineAudioMode, "sub", "Preferred audio mode.\nAvailable options are: sub, dub")
	register(key.EngineProviderTimeout, 5, "Seconds to wait for a single provider search.\nA provider that takes longer is treated as having no results")
	register(key.EngineRegional, true, "Check regional sources in the background after the primary servers resolve")
	register(key.EngineProviders, []string{"allanime", "hianime", "anitaku"}, "Primary providers to search.\nType \"nezuko sources list\" to show regional sources")
	register(key.GatewayConcurrency, 3, "Maximum simultaneous catalog requests")
	register(key.GatewayCacheTTL, 300, "Seconds a catalog response stays cached in memory")
	register(key.GatewayRetries, 3, "Attempts per catalog request before giving up")
	register(key.GatewayRetryDelay, 1000, "Base delay between catalog retries, in milliseconds")
	register(key.MappingTTL, 24, "Hours an episode mapping stays cached")
	register(key.MappingNegativeTTL, 30, "Minutes a missing mapping is remembered before asking again")
	register(key.HistorySavePosition, true, "Save playback position while watching")
	register(key.HistoryResume, true, "Resume episodes from the saved position")
	register(key.SearchShowQuerySuggestions, true, "Show query suggestions when searching")
	register(key.SearchLimit, 20, "Limit of search results to show")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.Player, "mpv", "Media player to use")
	register(key.PlayerSkip, true, "Skip openings and endings when skip times are known")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}
