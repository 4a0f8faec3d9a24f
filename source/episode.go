package source

import "strconv"

// Episode is one entry of a variant's episode list. Number is always
// positive in a resolved list.
type Episode struct {
	ID          string `json:"id"`
	Number      int    `json:"number"`
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	IsFiller    bool   `json:"is_filler,omitempty"`
}

func (e *Episode) String() string {
	if e.Title != "" {
		return strconv.Itoa(e.Number) + ". " + e.Title
	}
	return "Episode " + strconv.Itoa(e.Number)
}
