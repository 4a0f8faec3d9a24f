package version

import (
	"context"
	"fmt"
	"time"

	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/icon"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/nezuko-cli/nezuko/util"
	"github.com/spf13/viper"
)

// Notify prints a notice when a newer release exists.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	version, err := Latest(ctx)
	erase()
	if err != nil {
		return
	}

	if comp, err := Compare(version, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/nezuko-cli/nezuko/releases/tag/v"+version),
	)
}
