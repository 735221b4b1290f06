package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/squad-weights/internal/core/stattable"
)

func TestClassify(t *testing.T) {
	cases := map[string]Role{
		"GK":       Goalkeeper,
		"CB":       Defender,
		"LB":       Defender,
		"DM":       Midfielder,
		"LM,AM":    Midfielder,
		"FW,RW":    Attacker,
		"CM, LW":   Attacker,
		"AM,FW":    Attacker,
		"FW":       Attacker,
		"CF":       Unclassified,
		"":         Unclassified,
		"CB,":      Unclassified,
		"  RB  ":   Defender,
		"LW,WB":    Defender,
		"RW,CM,GK": Goalkeeper,
	}
	for pos, want := range cases {
		assert.Equal(t, want, Classify(pos), "position %q", pos)
	}
}

func TestClassifyUsesOnlyLastLetterOfLastRole(t *testing.T) {
	for _, prefix := range []string{"", "GK,", "CB,LB,", "FW,"} {
		for suffix, want := range map[byte]Role{'K': Goalkeeper, 'B': Defender, 'M': Midfielder, 'W': Attacker} {
			pos := prefix + "X" + string(suffix)
			assert.Equal(t, want, Classify(pos), pos)
		}
	}
}

type stubLineups struct {
	entries []Entry
	err     error
}

func (s stubLineups) Lineup(context.Context, string) ([]Entry, error) { return s.entries, s.err }

func TestExtractStartersOfTeam(t *testing.T) {
	src := stubLineups{entries: []Entry{
		{Team: "Arsenal", Player: "Aaron Ramsdale", Position: "GK", IsStarter: true},
		{Team: "Arsenal", Player: "William Saliba", Position: "CB", IsStarter: true},
		{Team: "Arsenal FC", Player: "Granit Xhaka", Position: "LM,CM", IsStarter: true},
		{Team: "Arsenal", Player: "Bukayo Saka", Position: "RW", IsStarter: true},
		{Team: "Arsenal", Player: "Gabriel Jesus", Position: "CF", IsStarter: true},
		{Team: "Arsenal", Player: "Eddie Nketiah", Position: "FW,LW", IsStarter: false},
		{Team: "Crystal Palace", Player: "Vicente Guaita", Position: "GK", IsStarter: true},
		{Team: "Arsenal", Player: "William Saliba", Position: "RW", IsStarter: true},
	}}

	r, err := NewExtractor(src).Extract(context.Background(), "m1", "Arsenal")
	require.NoError(t, err)

	assert.Equal(t, stattable.NewSet("Aaron Ramsdale"), r.Bucket(Goalkeeper))
	assert.Equal(t, stattable.NewSet("William Saliba"), r.Bucket(Defender))
	assert.Equal(t, stattable.NewSet("Granit Xhaka"), r.Bucket(Midfielder))
	assert.Equal(t, stattable.NewSet("Bukayo Saka"), r.Bucket(Attacker))
	assert.Equal(t, 4, r.Size())
}

func TestExtractLineupUnavailable(t *testing.T) {
	r, err := NewExtractor(stubLineups{err: errors.New("404")}).Extract(context.Background(), "m1", "Arsenal")
	assert.ErrorIs(t, err, stattable.ErrMissingMatchData)
	assert.Equal(t, 0, r.Size())
	assert.NotNil(t, r.Bucket(Defender))
}
