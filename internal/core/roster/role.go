package roster

import "strings"

// Role is the coarse positional bucket of a starter.
type Role int

const (
	Unclassified Role = iota
	Goalkeeper
	Defender
	Midfielder
	Attacker
)

// Roles lists the classified buckets.
var Roles = []Role{Goalkeeper, Defender, Midfielder, Attacker}

func (r Role) String() string {
	switch r {
	case Goalkeeper:
		return "goalkeeper"
	case Defender:
		return "defender"
	case Midfielder:
		return "midfielder"
	case Attacker:
		return "attacker"
	}
	return "unclassified"
}

// Classify maps a raw position string such as "LM,AM" to a bucket. Only
// the last comma-separated role counts, and only its final letter:
// K keeper, B back, M midfield, W wing/forward. Anything else is
// Unclassified.
func Classify(position string) Role {
	parts := strings.Split(position, ",")
	last := strings.TrimSpace(parts[len(parts)-1])
	if last == "" {
		return Unclassified
	}
	switch last[len(last)-1] {
	case 'K':
		return Goalkeeper
	case 'B':
		return Defender
	case 'M':
		return Midfielder
	case 'W':
		return Attacker
	}
	return Unclassified
}
