package log

import (
	"os"
	"testing"
	"time"

	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	_ = os.Setenv(where.EnvConfigPath, "/config")
}

func TestSetup(t *testing.T) {
	Convey("Given logging is disabled", t, func() {
		viper.Set(key.LogsWrite, false)
		So(Setup(), ShouldBeNil)

		Convey("Nothing should be written", func() {
			Warn("dropped")
			exists, _ := filesystem.API().Exists(Path(time.Now()))
			So(exists, ShouldBeFalse)
		})
	})

	Convey("Given logging is enabled", t, func() {
		viper.Set(key.LogsWrite, true)
		viper.Set(key.LogsJson, true)
		viper.Set(key.LogsLevel, "warn")
		So(Setup(), ShouldBeNil)

		Reset(func() {
			viper.Set(key.LogsWrite, false)
			_ = Setup()
		})

		Convey("Entries at or above the level should reach the daily file", func() {
			Infof("hidden %d", 1)
			WithFields(logrus.Fields{"session": "abc"}).Warn("visible")

			data, err := filesystem.API().ReadFile(Path(time.Now()))
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"msg":"visible"`)
			So(string(data), ShouldContainSubstring, `"session":"abc"`)
			So(string(data), ShouldNotContainSubstring, "hidden")
		})

		Convey("An unknown level should fall back to info", func() {
			viper.Set(key.LogsLevel, "loud")
			So(Setup(), ShouldBeNil)
			So(logger.GetLevel(), ShouldEqual, logrus.InfoLevel)
		})
	})
}
