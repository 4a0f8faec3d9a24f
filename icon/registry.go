package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Lua Icon = iota
	Fail
	Success
	Progress
	Warn
	Search
	Play
	Server
	Multi
)

var icons = map[Icon]*iconDef{
	Lua: {
		emoji:   "🌙",
		nerd:    "",
		plain:   "lua",
		kaomoji: "☽",
		squares: "◧",
	},
	Fail: {
		emoji:   "💀",
		nerd:    "",
		plain:   "x",
		kaomoji: "(╥﹏╥)",
		squares: "🟥",
	},
	Success: {
		emoji:   "🎉",
		nerd:    "",
		plain:   "ok",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "...",
		kaomoji: "(・_・ヾ",
		squares: "🟦",
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    "",
		plain:   "!",
		kaomoji: "(・・ ) ?",
		squares: "🟨",
	},
	Search: {
		emoji:   "🔍",
		nerd:    "",
		plain:   "?",
		kaomoji: "(・ω・)つ",
		squares: "⬜",
	},
	Play: {
		emoji:   "▶️",
		nerd:    "",
		plain:   ">",
		kaomoji: "(ﾉ◕ヮ◕)ﾉ",
		squares: "▶",
	},
	Server: {
		emoji:   "🖥️",
		nerd:    "",
		plain:   "#",
		kaomoji: "[¬º-°]¬",
		squares: "▣",
	},
	Multi: {
		emoji:   "🎧",
		nerd:    "",
		plain:   "*",
		kaomoji: "♪(´▽｀)",
		squares: "◩",
	},
}
