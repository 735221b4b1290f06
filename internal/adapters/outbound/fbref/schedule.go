package fbref

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/charleschow/squad-weights/internal/core/season"
	"github.com/charleschow/squad-weights/internal/core/stattable"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

// scheduleColumns maps the data-stat attribute of a match log cell to the
// schedule column it feeds, in output order.
var scheduleColumns = []struct {
	stat string
	name string
}{
	{"date", "date"},
	{"start_time", "time"},
	{"round", "round"},
	{"dayofweek", "day"},
	{"venue", "venue"},
	{"result", "result"},
	{"goals_for", "GF"},
	{"goals_against", "GA"},
	{"opponent", "opponent"},
	{"xg_for", "xG"},
	{"xg_against", "xGA"},
	{"possession", "Poss"},
	{"attendance", "Attendance"},
	{"captain", "Captain"},
	{"formation", "Formation"},
	{"referee", "Referee"},
	{"match_report", "match_report"},
	{"notes", "Notes"},
}

// ScheduleRecords scrapes the team's match log and returns a header row
// followed by one row per played match. A "game" column holds the
// "YYYY-MM-DD Home-Away" slug used as the match storage key.
func (c *Client) ScheduleRecords(ctx context.Context) ([][]string, error) {
	doc, err := c.document(ctx, c.opts.SchedulePath)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	records, games, err := parseSchedule(doc, c.opts.Team)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for id, g := range games {
		c.games[id] = g
	}
	c.mu.Unlock()

	telemetry.Infof("fbref: schedule for %s has %d played matches", c.opts.Team, len(records)-1)
	return records, nil
}

func parseSchedule(doc *goquery.Document, team string) ([][]string, map[string]string, error) {
	table := doc.Find("table#matchlogs_for").First()
	if table.Length() == 0 {
		return nil, nil, fmt.Errorf("schedule table matchlogs_for: %w", stattable.ErrSchemaDrift)
	}

	header := make([]string, 0, len(scheduleColumns)+1)
	for _, col := range scheduleColumns {
		header = append(header, col.name)
	}
	header = append(header, season.ColGame)
	records := [][]string{header}
	games := make(map[string]string)

	table.Find("tbody > tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("thead") || tr.HasClass("spacer") {
			return
		}
		cells := make(map[string]*goquery.Selection)
		tr.Children().Each(func(_ int, cell *goquery.Selection) {
			if stat, ok := cell.Attr("data-stat"); ok {
				cells[stat] = cell
			}
		})
		if cellText(cells["result"]) == "" {
			return
		}

		rec := make([]string, 0, len(header))
		for _, col := range scheduleColumns {
			if col.stat == "match_report" {
				rec = append(rec, cellHref(cells[col.stat]))
				continue
			}
			rec = append(rec, cellText(cells[col.stat]))
		}

		game := gameSlug(cellText(cells["date"]), cellText(cells["venue"]), team, cellText(cells["opponent"]))
		rec = append(rec, game)
		records = append(records, rec)

		if id := season.MatchIDFromReport(cellHref(cells["match_report"])); id != "" {
			games[id] = game
		}
	})
	return records, games, nil
}

// gameSlug names a match "YYYY-MM-DD Home-Away".
func gameSlug(date, venue, team, opponent string) string {
	home, away := team, opponent
	if venue != "Home" {
		home, away = opponent, team
	}
	return fmt.Sprintf("%s %s-%s", date, home, away)
}

func cellText(s *goquery.Selection) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.Text())
}

func cellHref(s *goquery.Selection) string {
	if s == nil {
		return ""
	}
	href, _ := s.Find("a").Attr("href")
	return href
}
