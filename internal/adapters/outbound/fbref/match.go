package fbref

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/charleschow/squad-weights/internal/core/roster"
	"github.com/charleschow/squad-weights/internal/core/stattable"
)

var formationSuffix = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// tableSelectors pick the per-team tables of a category on a match page.
var tableSelectors = map[stattable.Category]string{
	stattable.Keepers:   `table[id^="keeper_stats_"]`,
	stattable.Defense:   `table[id^="stats_"][id$="_defense"]`,
	stattable.Passing:   `table[id^="stats_"][id$="_passing"]`,
	stattable.Attacking: `table[id^="stats_"][id$="_summary"]`,
}

// Lineup returns both teams' lineups for a match. Players listed after the
// "Bench" row are substitutes. Positions come from the summary tables.
func (c *Client) Lineup(ctx context.Context, matchID string) ([]roster.Entry, error) {
	doc, err := c.matchDocument(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("lineup %s: %w", matchID, err)
	}
	entries := parseLineups(doc)
	if len(entries) == 0 {
		return nil, fmt.Errorf("lineup %s: no lineup tables: %w", matchID, stattable.ErrMissingMatchData)
	}
	return entries, nil
}

func parseLineups(doc *goquery.Document) []roster.Entry {
	positions := make(map[string]string)
	doc.Find(tableSelectors[stattable.Attacking]).Find("tbody > tr").Each(func(_ int, tr *goquery.Selection) {
		player := strings.TrimSpace(tr.Find(`[data-stat="player"]`).Text())
		if player != "" {
			positions[player] = strings.TrimSpace(tr.Find(`[data-stat="position"]`).Text())
		}
	})

	var entries []roster.Entry
	doc.Find("div.lineup").Each(func(_ int, div *goquery.Selection) {
		var team string
		starter := true
		div.Find("tr").Each(func(i int, tr *goquery.Selection) {
			if th := tr.Find("th"); th.Length() > 0 {
				label := strings.TrimSpace(th.Text())
				if i == 0 {
					team = formationSuffix.ReplaceAllString(label, "")
				} else if strings.EqualFold(label, "Bench") {
					starter = false
				}
				return
			}
			player := strings.TrimSpace(tr.Find("td").Last().Text())
			if player == "" {
				return
			}
			entries = append(entries, roster.Entry{
				Team:      team,
				Player:    player,
				Position:  positions[player],
				IsStarter: starter,
			})
		})
	})
	return entries
}

// PlayerStats returns the category's player table of both teams.
func (c *Client) PlayerStats(ctx context.Context, matchID string, category stattable.Category) (*stattable.RawTable, error) {
	doc, err := c.matchDocument(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", category.SourceName(), matchID, err)
	}
	game, ok := c.gameFor(matchID)
	if !ok {
		game = scoreboxGame(doc)
	}
	key := stattable.RowKey{League: c.opts.League, Season: c.opts.Season, Game: game}
	raw, err := parseStatTables(doc, category, key)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", category.SourceName(), matchID, err)
	}
	return raw, nil
}

func parseStatTables(doc *goquery.Document, category stattable.Category, key stattable.RowKey) (*stattable.RawTable, error) {
	tables := doc.Find(tableSelectors[category])
	if tables.Length() == 0 {
		return nil, fmt.Errorf("no %s tables: %w", category.SourceName(), stattable.ErrMissingMatchData)
	}

	raw := &stattable.RawTable{}
	var err error
	tables.EachWithBreak(func(i int, table *goquery.Selection) bool {
		cols, playerIdx, herr := parseHeader(table)
		if herr != nil {
			err = herr
			return false
		}
		if i == 0 {
			raw.Columns = cols
		} else if len(cols) != len(raw.Columns) {
			err = fmt.Errorf("team tables have %d and %d columns: %w", len(raw.Columns), len(cols), stattable.ErrSchemaDrift)
			return false
		}

		k := key
		k.Team = tableTeam(table)
		table.Find("tbody > tr").Each(func(_ int, tr *goquery.Selection) {
			if tr.HasClass("thead") || tr.HasClass("spacer") {
				return
			}
			var cells []string
			var player string
			tr.Children().Each(func(j int, cell *goquery.Selection) {
				if j == playerIdx {
					player = strings.TrimSpace(cell.Text())
					return
				}
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if player == "" {
				return
			}
			k.Player = player
			raw.Rows = append(raw.Rows, stattable.RawRow{Key: k, Cells: cells})
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// parseHeader reads the two-level column header. The over_header row
// carries the group labels, expanded by colspan; the last header row
// carries the metric names. The player column is returned by index.
func parseHeader(table *goquery.Selection) ([]stattable.ColumnKey, int, error) {
	rows := table.Find("thead > tr")
	if rows.Length() == 0 {
		return nil, 0, fmt.Errorf("table %s has no header: %w", table.AttrOr("id", "?"), stattable.ErrSchemaDrift)
	}

	var groups []string
	rows.Filter(".over_header").First().Children().Each(func(_ int, th *goquery.Selection) {
		span, err := strconv.Atoi(th.AttrOr("colspan", "1"))
		if err != nil || span < 1 {
			span = 1
		}
		label := strings.TrimSpace(th.Text())
		for n := 0; n < span; n++ {
			groups = append(groups, label)
		}
	})

	playerIdx := -1
	var cols []stattable.ColumnKey
	rows.Last().Children().Each(func(i int, th *goquery.Selection) {
		if th.AttrOr("data-stat", "") == "player" {
			playerIdx = i
			return
		}
		group := ""
		if i < len(groups) {
			group = groups[i]
		}
		cols = append(cols, stattable.ColumnKey{Group: group, Metric: strings.TrimSpace(th.Text())})
	})
	if playerIdx < 0 {
		return nil, 0, fmt.Errorf("table %s has no player column: %w", table.AttrOr("id", "?"), stattable.ErrSchemaDrift)
	}
	return cols, playerIdx, nil
}

// tableTeam reads the team from a caption like "Arsenal Player Stats Table".
func tableTeam(table *goquery.Selection) string {
	caption := strings.TrimSpace(table.Find("caption").First().Text())
	for _, suffix := range []string{" Player Stats Table", " Goalkeeper Stats Table", " Stats Table"} {
		if strings.HasSuffix(caption, suffix) {
			return strings.TrimSuffix(caption, suffix)
		}
	}
	return caption
}

// scoreboxGame builds the game slug from the match page itself, for matches
// not seen in a scraped schedule.
func scoreboxGame(doc *goquery.Document) string {
	date := doc.Find(".scorebox_meta .venuetime").First().AttrOr("data-venue-date", "")
	var teams []string
	doc.Find(".scorebox strong a").Each(func(_ int, a *goquery.Selection) {
		if href, _ := a.Attr("href"); strings.Contains(href, "/squads/") && len(teams) < 2 {
			teams = append(teams, strings.TrimSpace(a.Text()))
		}
	})
	if date == "" || len(teams) < 2 {
		return ""
	}
	return fmt.Sprintf("%s %s-%s", date, teams[0], teams[1])
}
