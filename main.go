// Package main is the entry point for the nezuko application.
package main

import (
	"github.com/nezuko-cli/nezuko/cmd"
	"github.com/nezuko-cli/nezuko/config"
	"github.com/nezuko-cli/nezuko/internal/cache"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cache.CollectGarbage()

	cmd.Execute()
}
