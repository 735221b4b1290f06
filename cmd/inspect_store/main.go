package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charleschow/squad-weights/internal/config"
	"github.com/charleschow/squad-weights/internal/core/stattable"
	"github.com/charleschow/squad-weights/internal/store"
)

func main() {
	key := flag.String("key", "", "match key, e.g. \"2022-08-05 Crystal Palace-Arsenal\" (omit to list keys)")
	category := flag.String("cat", "all", "category: keepers_stats, defense_stats, passing_stats, attacking_stats, or all")
	weights := flag.String("weights", "", "print stored weights for a stat type instead")
	flag.Parse()

	cfg := config.Load()
	st, err := store.OpenFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()
	ctx := context.Background()

	if *weights != "" {
		printWeights(ctx, st, *weights)
		return
	}

	if *key == "" {
		keys, err := st.Keys(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list keys: %v\n", err)
			os.Exit(1)
		}
		if len(keys) == 0 {
			fmt.Println("(no data)")
			return
		}
		fmt.Printf("=== %d stored matches ===\n", len(keys))
		for _, k := range keys {
			fmt.Println(k)
		}
		return
	}

	cats := stattable.Categories
	if *category != "all" {
		c, err := stattable.ParseCategory(*category)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cats = []stattable.Category{c}
	}

	for i, c := range cats {
		if i > 0 {
			fmt.Println()
		}
		printTable(ctx, st, *key, c)
	}
}

func printTable(ctx context.Context, st store.Store, key string, c stattable.Category) {
	fmt.Printf("=== %s / %s ===\n", key, c.Name())

	t, err := st.Get(ctx, key, c)
	if errors.Is(err, stattable.ErrTableNotFound) {
		fmt.Println("(not stored)")
		return
	}
	if err != nil {
		fmt.Printf("  (cannot read: %v)\n", err)
		return
	}
	if len(t.Rows) == 0 {
		fmt.Printf("(no players)  columns: %s\n", strings.Join(t.Columns, ", "))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "player\t%s\n", strings.Join(t.Columns, "\t"))
	for _, r := range t.Rows {
		cells := make([]string, len(r.Values))
		for j, v := range r.Values {
			if math.IsNaN(v) {
				cells[j] = "-"
				continue
			}
			cells[j] = fmt.Sprintf("%g", v)
		}
		fmt.Fprintf(w, "%s\t%s\n", r.Player, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func printWeights(ctx context.Context, st store.Store, statType string) {
	w, err := st.GetWeights(ctx, statType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("=== %s weights (sum %.4f) ===\n", statType, w.Sum())
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, fw := range w.Sorted() {
		fmt.Fprintf(tw, "%s\t%.4f\n", fw.Feature, fw.Weight)
	}
	tw.Flush()
}
