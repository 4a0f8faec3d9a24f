package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer maps config keys to environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup registers defaults and env bindings, then reads the config file if one exists.
func Setup() error {
	viper.SetConfigName(constant.Nezuko)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Nezuko)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// File is the path of the TOML config file.
func File() string {
	return filepath.Join(where.Config(), constant.Nezuko+".toml")
}

// Save writes the current settings, creating the file when missing.
func Save() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfigAs(File())
	}
	return err
}

// Set parses args for the registered key and stores the result in memory.
func Set(k string, args []string) (any, error) {
	field, ok := Default[k]
	if !ok {
		return nil, fmt.Errorf("unknown key %s", k)
	}

	v, err := field.Parse(args)
	if err != nil {
		return nil, err
	}

	viper.Set(k, v)
	return v, nil
}

// Reset restores the given keys to their defaults, all keys when none are given.
func Reset(keys ...string) error {
	if len(keys) == 0 {
		for k, field := range Default {
			viper.Set(k, field.Value)
		}
		return nil
	}

	for _, k := range keys {
		field, ok := Default[k]
		if !ok {
			return fmt.Errorf("unknown key %s", k)
		}
		viper.Set(k, field.Value)
	}
	return nil
}

// ProviderTimeout is the per-call bound applied to provider searches.
func ProviderTimeout() time.Duration {
	return time.Duration(viper.GetInt(key.EngineProviderTimeout)) * time.Second
}

// GatewayCacheTTL is the lifetime of a cached catalog response.
func GatewayCacheTTL() time.Duration {
	return time.Duration(viper.GetInt(key.GatewayCacheTTL)) * time.Second
}

// GatewayRetryDelay is the base back-off between catalog retries.
func GatewayRetryDelay() time.Duration {
	return time.Duration(viper.GetInt(key.GatewayRetryDelay)) * time.Millisecond
}

// MappingTTL is the lifetime of a positive mapping record.
func MappingTTL() time.Duration {
	return time.Duration(viper.GetInt(key.MappingTTL)) * time.Hour
}

// MappingNegativeTTL is the lifetime of a cached "no mapping" record.
func MappingNegativeTTL() time.Duration {
	return time.Duration(viper.GetInt(key.MappingNegativeTTL)) * time.Minute
}
