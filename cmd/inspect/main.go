package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/statebot/go-statebot/internal/journal"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to statebot.db")
	last := flag.Int("last", 20, "show N most recent rows")
	determinations := flag.Bool("determinations", false, "show determination audits instead of transitions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/statebot.db [--last N] [--determinations] [--json]")
		os.Exit(2)
	}

	jnl, err := journal.New(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer jnl.Close()

	if *determinations {
		err = runDeterminations(jnl, *last, *jsonOut)
	} else {
		err = runTransitions(jnl, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region transitions

type transitionRow struct {
	ID        string   `json:"id"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to"`
	Facts     []string `json:"facts"`
	CreatedAt string   `json:"created_at"`
}

func runTransitions(jnl *journal.Journal, last int, jsonOut bool) error {
	transitions, err := jnl.ListTransitions(last)
	if err != nil {
		return err
	}

	rows := make([]transitionRow, len(transitions))
	for i, t := range transitions {
		rows[i] = transitionRow{
			ID:        t.ID,
			From:      t.From,
			To:        t.To,
			Facts:     t.Facts,
			CreatedAt: t.At.Format("2006-01-02 15:04:05"),
		}
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(rows)
	}

	fmt.Printf("%-20s  %-12s  %-12s  %-6s  %s\n", "created", "from", "to", "facts", "id")
	for _, r := range rows {
		from := r.From
		if from == "" {
			from = "(none)"
		}
		fmt.Printf("%-20s  %-12s  %-12s  %-6d  %s\n", r.CreatedAt, from, r.To, len(r.Facts), shortID(r.ID))
	}
	return nil
}

// #endregion transitions

// #region determinations

func runDeterminations(jnl *journal.Journal, last int, jsonOut bool) error {
	audits, err := jnl.ListDeterminations(last)
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(audits)
	}

	fmt.Printf("%-20s  %-9s  %-12s  %-5s  %-10s  %-8s  %s\n",
		"created", "trigger", "state", "hit", "confidence", "took", "error")
	for _, a := range audits {
		state := a.State
		if state == "" {
			state = "-"
		}
		fmt.Printf("%-20s  %-9s  %-12s  %-5v  %-10.2f  %-8s  %s\n",
			a.CreatedAt.Format("2006-01-02 15:04:05"), a.Trigger, state, a.CacheHit,
			a.Confidence, fmt.Sprintf("%dms", a.DurationMS), a.Error)
	}
	return nil
}

// #endregion determinations

// #region helpers
func shortID(id string) string {
	if i := strings.Index(id, "-"); i > 0 {
		return id[:i]
	}
	return id
}

// #endregion helpers
