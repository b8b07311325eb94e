package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Garsondee/battle-resolver/internal/battle"
	"github.com/Garsondee/battle-resolver/internal/report"
	"github.com/Garsondee/battle-resolver/internal/scenario"
)

type config struct {
	scenario string
	runs     int
	ticks    int
	seedBase int64
	seedStep int64
	verbose  bool
	out      string
	summary  string
	dumpLog  bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.scenario, "scenario", "scenarios/space_skirmish.yaml", "scenario YAML file")
	flag.IntVar(&cfg.runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&cfg.ticks, "ticks", 0, "tick limit per run (0 uses the scenario's)")
	flag.Int64Var(&cfg.seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&cfg.seedStep, "seed-step", 1, "seed increment between runs")
	flag.BoolVar(&cfg.verbose, "verbose", false, "record per-shot events (enables hit statistics)")
	flag.StringVar(&cfg.out, "out", "", "write run records to this msgpack file")
	flag.StringVar(&cfg.summary, "summary", "", "write the aggregate to this YAML file")
	flag.BoolVar(&cfg.dumpLog, "log", false, "print the full event log of every run")
	flag.Parse()

	if err := run(cfg, os.Stdout); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func run(cfg config, w io.Writer) error {
	if cfg.runs <= 0 {
		return errors.New("-runs must be > 0")
	}
	if cfg.ticks < 0 {
		return errors.New("-ticks must be >= 0")
	}
	sc, err := scenario.Load(cfg.scenario)
	if err != nil {
		return err
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(cfg.scenario), filepath.Ext(cfg.scenario))
	}
	if cfg.ticks > 0 {
		sc.TickLimit = cfg.ticks
	}
	if sc.TickLimit == 0 {
		// Headless runs must end even when neither side can reach the other.
		sc.TickLimit = 36000
	}

	fmt.Fprintf(w, "=== Headless Battle Report ===\n")
	fmt.Fprintf(w, "%s\n", sc.Summary())
	fmt.Fprintf(w, "runs=%d tick_limit=%d seed_base=%d seed_step=%d\n\n", cfg.runs, sc.TickLimit, cfg.seedBase, cfg.seedStep)

	recs := make([]report.Record, 0, cfg.runs)
	for i := 0; i < cfg.runs; i++ {
		seed := cfg.seedBase + int64(i)*cfg.seedStep
		rec, log := runOnce(sc, i+1, seed, cfg.verbose)
		recs = append(recs, rec)
		fmt.Fprint(w, report.Format(rec))
		if stalemate, reason := report.DetectStalemate(rec); stalemate {
			fmt.Fprintf(w, "stalemate: %s\n", reason)
		}
		if cfg.dumpLog {
			fmt.Fprint(w, log.Format())
		}
		fmt.Fprintln(w)
	}

	agg := report.Summarize(sc.Name, recs)
	fmt.Fprint(w, agg.Format())

	if cfg.out != "" {
		if err := report.WriteFile(cfg.out, recs); err != nil {
			return err
		}
		fmt.Fprintf(w, "records written to %s\n", cfg.out)
	}
	if cfg.summary != "" {
		f, err := os.Create(cfg.summary)
		if err != nil {
			return fmt.Errorf("create summary: %w", err)
		}
		if err := agg.WriteYAML(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(w, "summary written to %s\n", cfg.summary)
	}
	return nil
}

// runOnce plays one seeded battle to resolution.
func runOnce(sc *scenario.File, runIndex int, seed int64, verbose bool) (report.Record, *battle.SimLog) {
	log := battle.NewSimLog(verbose)
	opts := append(sc.Options(),
		battle.WithSeed(seed),
		battle.WithLog(log),
		battle.WithBattleID(fmt.Sprintf("%s-%d", sc.Name, runIndex)),
	)
	e := battle.New(sc.Setup(), opts...)
	for e.Tick() {
	}
	res, _ := e.Result()
	return report.Record{
		Scenario: sc.Name,
		Run:      runIndex,
		Seed:     seed,
		Result:   res,
		Stats:    report.Collect(log),
	}, log
}
