package annotation

import (
	"fmt"
	"strings"
)

// Kind names one of the per-user lists
type Kind string

const (
	Favorite Kind = "favorites"
	Watched  Kind = "watched"
)

// Kinds returns every annotation kind
func Kinds() []Kind {
	return []Kind{Favorite, Watched}
}

// ParseKind accepts singular and plural spellings
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "favorite", "favorites", "favourite", "favourites", "fav":
		return Favorite, nil
	case "watched", "watch":
		return Watched, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	return k == Favorite || k == Watched
}

// Label returns the singular display label
func (k Kind) Label() string {
	switch k {
	case Favorite:
		return "Favorite"
	case Watched:
		return "Watched"
	default:
		return string(k)
	}
}
