package constant

// Regional scraper entry points every Lua source must define.
const (
	SearchRegionalFn   = "SearchRegional"
	RegionalEpisodesFn = "RegionalEpisodes"
	RegionalStreamFn   = "RegionalStream"
)

// SourceTemplate is a text/template for scaffolding new regional Lua sources.
const SourceTemplate = `{{ $divider := repeat "-" (plus (max (len .URL) (len .Name) (len .Author) 3) 12) }}{{ $divider }}
-- @name    {{ .Name }}
-- @url     {{ .URL }}
-- @author  {{ .Author }}
-- @license MIT
{{ $divider }}


---@alias result { id: string, title: string, url: string|nil, image: string|nil, language: string|nil, is_multi_audio: boolean|nil, available_languages: string[]|nil, episodes: number|nil }
---@alias episode { id: string, number: number, url: string|nil, title: string|nil }
---@alias stream { url: string, quality: string|nil, headers: table|nil, subtitles: table|nil }


----- IMPORTS -----
local http = require("http_tls")
--- END IMPORTS ---



----- VARIABLES -----
local base = "{{ .URL }}"
--- END VARIABLES ---



----- MAIN -----

--- Searches regional dubs for the given title.
-- @param query string Query to search for
-- @return result[] Table of results
function {{ .SearchRegionalFn }}(query)
	return {}
end


--- Lists the episodes of a regional entry.
-- @param id string Result id
-- @return episode[] Table of episodes
function {{ .RegionalEpisodesFn }}(id)
	return {}
end


--- Resolves one episode to a playable stream.
-- @param id string Episode id
-- @return stream Stream table
function {{ .RegionalStreamFn }}(id)
	return { url = "" }
end


--- END MAIN ---




----- HELPERS -----
--- END HELPERS ---

-- ex: ts=4 sw=4 et filetype=lua
`
