// Package icon renders status symbols in the style chosen by icons.variant.
package icon

import (
	"slices"

	"github.com/nezuko-cli/nezuko/key"
	"github.com/spf13/viper"
)

const (
	plain   = "plain"
	emoji   = "emoji"
	kaomoji = "kaomoji"
	squares = "squares"
	nerd    = "nerd"
)

var variants = []string{plain, emoji, kaomoji, squares, nerd}

// AvailableVariants lists the accepted icons.variant values.
func AvailableVariants() []string {
	return slices.Clone(variants)
}

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

// in renders d in variant v. Unknown variants render as plain.
func (d *iconDef) in(v string) string {
	switch v {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case kaomoji:
		return d.kaomoji
	case squares:
		return d.squares
	default:
		return d.plain
	}
}

// Get renders i in the configured variant.
func Get(i Icon) string {
	def, ok := icons[i]
	if !ok {
		return ""
	}
	return def.in(viper.GetString(key.IconsVariant))
}
