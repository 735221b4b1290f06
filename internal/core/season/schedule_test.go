package season

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/squad-weights/internal/core/stattable"
)

func rawRecords() [][]string {
	return [][]string{
		{"date", "time", "round", "day", "venue", "result", "GF", "GA", "opponent", "xG", "xGA", "Poss", "Attendance", "Captain", "Formation", "Referee", "match_report", "Notes", "game"},
		{"2022-08-05", "20:00", "Matchweek 1", "Fri", "Away", "W", "2", "0", "Crystal Palace", "1.0", "1.2", "44", "25,286", "Martin Odegaard", "4-3-3", "Anthony Taylor", "/en/matches/e62f6e78/Crystal-Palace-Arsenal", "", "2022-08-05 Crystal Palace-Arsenal"},
		{"2022-08-13", "15:00", "Matchweek 2", "Sat", "Home", "D", "1", "1", "Leicester City", "2.6", "0.5", "62", "60,033", "Martin Odegaard", "4-3-3", "Paul Tierney", "/en/matches/a1b2c3d4/Arsenal-Leicester", "", "2022-08-13 Arsenal-Leicester City"},
		{"2022-08-20", "17:30", "Matchweek 3", "Sat", "Away", "L", "0", "1", "Bournemouth", "0.4", "1.1", "58", "10,000", "Martin Odegaard", "4-3-3", "Simon Hooper", "/en/matches/ffff0000/Bournemouth-Arsenal", "", "2022-08-20 Bournemouth-Arsenal"},
		{"2022-08-27", "17:30", "Matchweek 4", "Sat", "Home", "W", "2", "1", "Fulham", "1.9", "0.3", "60", "60,000", "Martin Odegaard", "4-3-3", "Peter Bankes", "/en/matches/0000aaaa/Arsenal-Fulham", "", "2022-08-27 Arsenal-Fulham"},
	}
}

func TestCleanSchedule(t *testing.T) {
	df, err := LoadRecords(rawRecords())
	require.NoError(t, err)
	sched, err := CleanSchedule(df)
	require.NoError(t, err)
	require.Equal(t, 4, sched.Len())

	var results, venues []int
	for _, m := range sched.Matches {
		results = append(results, m.Result)
		venues = append(venues, m.Venue)
	}
	assert.Equal(t, []int{3, 1, 0, 3}, results)
	assert.Equal(t, []int{0, 1, 0, 1}, venues)
	assert.Equal(t, "e62f6e78", sched.Matches[0].ID)
	assert.Equal(t, "2022-08-13 Arsenal-Leicester City", sched.Matches[1].Game)
	assert.Equal(t, 2.6, sched.Matches[1].Fields["xG"])

	for _, dropped := range []string{"date", "time", "round", "day", "Attendance", "Captain", "Formation", "Referee", "Notes"} {
		assert.NotContains(t, sched.Frame().Names(), dropped)
	}

	result, err := sched.Column("result")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 0, 3}, result)

	_, err = sched.Column("npxG")
	assert.ErrorIs(t, err, stattable.ErrSchemaDrift)
}

func TestScheduleCSVRoundTrip(t *testing.T) {
	df, err := LoadRecords(rawRecords())
	require.NoError(t, err)
	sched, err := CleanSchedule(df)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sched.WriteCSV(&buf))
	back, err := ReadCSV(&buf)
	require.NoError(t, err)

	require.Equal(t, sched.Len(), back.Len())
	for i := range sched.Matches {
		assert.Equal(t, sched.Matches[i].ID, back.Matches[i].ID)
		assert.Equal(t, sched.Matches[i].Game, back.Matches[i].Game)
		assert.Equal(t, sched.Matches[i].Result, back.Matches[i].Result)
		assert.Equal(t, sched.Matches[i].Venue, back.Matches[i].Venue)
	}
}

func TestCleanScheduleRequiresColumns(t *testing.T) {
	df, err := LoadRecords([][]string{{"date", "venue", "result"}, {"2022-08-05", "Home", "W"}})
	require.NoError(t, err)
	_, err = CleanSchedule(df)
	assert.ErrorIs(t, err, stattable.ErrSchemaDrift)
}

func TestEncoders(t *testing.T) {
	assert.Equal(t, 3, EncodeResult("W"))
	assert.Equal(t, 1, EncodeResult("D"))
	assert.Equal(t, 0, EncodeResult("L"))
	assert.Equal(t, 1, EncodeResult(""))
	assert.Equal(t, 1, EncodeVenue("Home"))
	assert.Equal(t, 0, EncodeVenue("Away"))
	assert.Equal(t, 0, EncodeVenue("Neutral"))

	assert.Equal(t, "cc5b4244", MatchIDFromReport("/en/matches/cc5b4244/Arsenal-Tottenham"))
	assert.Equal(t, "cc5b4244", MatchIDFromReport("https://fbref.com/en/matches/cc5b4244/Arsenal-Tottenham"))
	assert.Equal(t, "", MatchIDFromReport("Head-to-Head"))
}
