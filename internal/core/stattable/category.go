package stattable

import "fmt"

// Category is one of the four per-match statistic domains.
type Category int

const (
	Keepers Category = iota
	Defense
	Passing
	Attacking
)

// Categories lists every category in fetch order.
var Categories = []Category{Keepers, Defense, Passing, Attacking}

// Name is the persisted table name, e.g. "defense_stats".
func (c Category) Name() string {
	switch c {
	case Keepers:
		return "keepers_stats"
	case Defense:
		return "defense_stats"
	case Passing:
		return "passing_stats"
	case Attacking:
		return "attacking_stats"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// SourceName is the stat_type the upstream feed uses for this category.
func (c Category) SourceName() string {
	switch c {
	case Keepers:
		return "keepers"
	case Defense:
		return "defense"
	case Passing:
		return "passing"
	case Attacking:
		return "summary"
	}
	return ""
}

func (c Category) String() string { return c.Name() }

// ParseCategory accepts either the persisted or the source name.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if s == c.Name() || s == c.SourceName() {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown stat category %q", s)
}
