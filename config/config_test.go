package config

import (
	"testing"
	"time"

	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	convey.Convey("Config Setup", t, func() {
		convey.Convey("Should initialize without error", func() {
			convey.So(Setup(), convey.ShouldBeNil)
		})

		convey.Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				convey.So(viper.Get(name), convey.ShouldNotBeNil)
			}
		})

		convey.Convey("Should register every defined key", func() {
			convey.So(len(Default), convey.ShouldEqual, key.DefinedFieldsCount)
			convey.So(len(EnvExposed), convey.ShouldEqual, key.DefinedFieldsCount)
		})

		convey.Convey("EnvKeyReplacer should convert dots to underscores", func() {
			convey.So(EnvKeyReplacer.Replace("gateway.cache_ttl"), convey.ShouldEqual, "gateway_cache_ttl")
		})

		convey.Convey("Durations should follow their units", func() {
			_ = Setup()
			convey.So(ProviderTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(GatewayCacheTTL(), convey.ShouldEqual, 5*time.Minute)
			convey.So(GatewayRetryDelay(), convey.ShouldEqual, time.Second)
			convey.So(MappingTTL(), convey.ShouldEqual, 24*time.Hour)
			convey.So(MappingNegativeTTL(), convey.ShouldEqual, 30*time.Minute)
		})
	})
}

func TestField(t *testing.T) {
	convey.Convey("Given the audio mode field", t, func() {
		f := Default[key.EngineAudioMode]

		convey.Convey("Env should carry the application prefix", func() {
			convey.So(f.Env(), convey.ShouldEqual, "NEZUKO_ENGINE_AUDIO_MODE")
		})

		convey.Convey("Its type should be string", func() {
			convey.So(f.typeName(), convey.ShouldEqual, "string")
		})

		convey.Convey("Parse should accept a single string", func() {
			v, err := f.Parse([]string{"dub"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, "dub")

			_, err = f.Parse([]string{"sub", "dub"})
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given typed fields", t, func() {
		convey.Convey("Integers should be parsed", func() {
			f := Default[key.SearchLimit]
			v, err := f.Parse([]string{"42"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, 42)

			_, err = f.Parse([]string{"many"})
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Booleans should be parsed", func() {
			f := Default[key.PlayerSkip]
			v, err := f.Parse([]string{"false"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, false)

			_, err = f.Parse([]string{"maybe"})
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("String lists should split on commas", func() {
			f := Default[key.EngineProviders]
			v, err := f.Parse([]string{"allanime, hianime", "anitaku"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldResemble, []string{"allanime", "hianime", "anitaku"})
		})

		convey.Convey("No arguments should fail", func() {
			f := Default[key.Player]
			_, err := f.Parse(nil)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestSetAndReset(t *testing.T) {
	convey.Convey("Given a loaded config", t, func() {
		convey.So(Setup(), convey.ShouldBeNil)

		convey.Convey("Set should store the parsed value", func() {
			v, err := Set(key.SearchLimit, []string{"5"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, 5)
			convey.So(viper.GetInt(key.SearchLimit), convey.ShouldEqual, 5)

			convey.Convey("And Reset should restore the default", func() {
				convey.So(Reset(key.SearchLimit), convey.ShouldBeNil)
				convey.So(viper.GetInt(key.SearchLimit), convey.ShouldEqual, 20)
			})
		})

		convey.Convey("Unknown keys should be rejected", func() {
			_, err := Set("engine.nope", []string{"1"})
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(Reset("engine.nope"), convey.ShouldNotBeNil)
		})

		convey.Convey("Save should create the config file", func() {
			_, err := Set(key.Player, []string{"vlc"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(Save(), convey.ShouldBeNil)

			exists, err := filesystem.API().Exists(File())
			convey.So(err, convey.ShouldBeNil)
			convey.So(exists, convey.ShouldBeTrue)
			convey.So(Reset(), convey.ShouldBeNil)
			convey.So(viper.GetString(key.Player), convey.ShouldEqual, "mpv")
		})
	})
}
