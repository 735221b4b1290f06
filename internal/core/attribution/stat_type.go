package attribution

import (
	"fmt"

	"github.com/charleschow/squad-weights/internal/core/stattable"
)

// StatType selects which category table feeds the design matrix and which
// schedule outcome columns form the targets.
type StatType int

const (
	Attacking StatType = iota
	Defense
	Keepers
	Other
)

var statTypes = []StatType{Attacking, Defense, Keepers, Other}

var statTargets = map[StatType][]string{
	Attacking: {"result", "GF", "xG"},
	Defense:   {"result", "GA", "xGA"},
	Keepers:   {"result", "GA", "xGA"},
	Other:     {"result", "GF", "GA", "xG", "xGA", "Poss"},
}

// Category is the per-match table the features come from. Other reads
// the passing table.
func (s StatType) Category() stattable.Category {
	switch s {
	case Attacking:
		return stattable.Attacking
	case Defense:
		return stattable.Defense
	case Keepers:
		return stattable.Keepers
	}
	return stattable.Passing
}

// Targets returns the schedule columns regressed on, in order.
func (s StatType) Targets() []string {
	return append([]string(nil), statTargets[s]...)
}

// Name is the stored table name, e.g. "defense_stats".
func (s StatType) Name() string { return s.Category().Name() }

func (s StatType) String() string { return s.Name() }

// ParseStatType accepts a stored table name; "other" selects the passing
// table with every outcome target.
func ParseStatType(name string) (StatType, error) {
	if name == "other" {
		return Other, nil
	}
	for _, s := range statTypes {
		if s.Name() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stat type %q (want attacking_stats, defense_stats, keepers_stats, passing_stats or other)", name)
}

// StatTypeFor returns the stat type whose features come from c.
func StatTypeFor(c stattable.Category) StatType {
	for _, s := range statTypes {
		if s.Category() == c {
			return s
		}
	}
	return Other
}
