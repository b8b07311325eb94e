package main

import (
	"flag"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/battle-resolver/internal/battle"
	"github.com/Garsondee/battle-resolver/internal/scenario"
	"github.com/Garsondee/battle-resolver/internal/view"
)

func main() {
	var (
		path     string
		seed     int64
		defender bool
		verbose  bool
		width    int
		height   int
	)
	flag.StringVar(&path, "scenario", "scenarios/ground_assault.yaml", "scenario YAML file")
	flag.Int64Var(&seed, "seed", 0, "RNG seed (0 uses the scenario's, else the clock)")
	flag.BoolVar(&defender, "defender", false, "command the defending side")
	flag.BoolVar(&verbose, "verbose", false, "record per-shot events")
	flag.IntVar(&width, "width", 1600, "window width")
	flag.IntVar(&height, "height", 900, "window height")
	flag.Parse()

	sc, err := scenario.Load(path)
	if err != nil {
		log.Fatal(err)
	}
	switch {
	case seed != 0:
	case sc.Seed != 0:
		seed = sc.Seed
	default:
		seed = time.Now().UnixNano()
	}

	simLog := battle.NewSimLog(verbose)
	opts := append(sc.Options(),
		battle.WithSeed(seed),
		battle.WithLog(simLog),
		battle.WithControlledSide(!defender),
	)
	engine := battle.New(sc.Setup(), opts...)
	log.Printf("battle %s: %s seed=%d", engine.BattleID(), sc.Summary(), seed)

	v := view.New(engine, sc.Name,
		view.WithControlledSide(!defender),
		view.WithWindowSize(width, height),
		view.WithSeed(seed),
	)
	ebiten.SetWindowTitle("Battle Resolver - " + sc.Name)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
	if res, ok := engine.Result(); ok {
		log.Printf("resolved: %s winner=%s tick=%d (%s)", res.Outcome, res.WinningSideID, res.Tick, res.Reason)
	}
}
