package source

import "fmt"

// Audio is a variant type. Sub and Dub double as the user's audio mode.
type Audio string

const (
	Sub   Audio = "sub"
	Dub   Audio = "dub"
	Multi Audio = "multi"
)

// ParseMode validates an audio mode. Only sub and dub are modes.
func ParseMode(s string) (Audio, error) {
	switch Audio(s) {
	case Sub, Dub:
		return Audio(s), nil
	default:
		return "", fmt.Errorf("invalid audio mode %q: expected sub or dub", s)
	}
}

// Variant is one selectable server and audio track combination.
type Variant struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Type Audio  `json:"type"`
}

func (v Variant) String() string {
	return v.Name
}
