package version

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// parse reads a major.minor.patch version with an optional "v" prefix.
// Pre-release and build suffixes are ignored.
func parse(s string) ([]int, error) {
	core, _, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(s), "v"), "-")
	core, _, _ = strings.Cut(core, "+")

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid version %q", s)
	}

	numbers := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version %q", s)
		}
		numbers[i] = n
	}
	return numbers, nil
}

// Compare returns 1 if a is newer than b, -1 if older and 0 if equal.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}

	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	return slices.Compare(av, bv), nil
}
