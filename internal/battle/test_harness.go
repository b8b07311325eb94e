package battle

import "math"

// TestSim is a headless harness used by tests. It builds
// an Engine with no composition and places units at exact positions, so a
// scenario can be staged precisely.
type TestSim struct {
	Engine *Engine
	SimLog *SimLog
	// Units holds the staged units in the order their options were given.
	Units []*Unit

	seed       int64
	verbose    bool
	setup      Setup
	tickLimit  int
	engineOpts []Option
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // variant, terrain, obstacles, seed; applied first
	simOptUnit                       // place units; applied once the engine exists
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// Side ids used by staged units.
const (
	TestAttackerSide SideID = "attacker"
	TestDefenderSide SideID = "defender"
)

// WithSimSeed sets the RNG seed for deterministic runs.
func WithSimSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.seed = seed }}
}

// WithVerbose enables per-shot verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.verbose = v }}
}

// WithVariant picks space or ground.
func WithVariant(v Variant) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.setup.Variant = v }}
}

// WithTerrain sets the ground terrain id.
func WithTerrain(id string) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.mapConfig().TerrainID = id }}
}

// WithObstacle adds an obstacle. Only ground battles keep obstacles.
func WithObstacle(o Obstacle) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		mc := ts.mapConfig()
		mc.Obstacles = append(mc.Obstacles, o)
	}}
}

// WithMapSize sets the playfield dimensions.
func WithMapSize(w, h float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		mc := ts.mapConfig()
		mc.Width, mc.Height = w, h
	}}
}

// WithCustomArchetype extends the catalog.
func WithCustomArchetype(a Archetype) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.setup.CustomArchetypes = append(ts.setup.CustomArchetypes, a)
	}}
}

// WithAbility extends the ability catalog.
func WithAbility(ab AbilityDef) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.setup.AbilityCatalog = append(ts.setup.AbilityCatalog, ab)
	}}
}

// WithUnlockedAbilities restricts hero abilities to ids.
func WithUnlockedAbilities(ids ...string) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.setup.HeroUnlocks = &HeroUnlocks{UnlockedAbilityIDs: ids}
	}}
}

// WithSimTickLimit ends undecided battles as a draw after n ticks.
func WithSimTickLimit(n int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.tickLimit = n }}
}

// WithEngineOption passes an engine option straight through.
func WithEngineOption(o Option) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.engineOpts = append(ts.engineOpts, o) }}
}

// WithAttacker places an attacking unit of archetype at (x,y).
func WithAttacker(archetype string, x, y float64) SimOption {
	return SimOption{simOptUnit, func(ts *TestSim) { ts.place(archetype, TestAttackerSide, true, x, y) }}
}

// WithDefender places a defending unit of archetype at (x,y).
func WithDefender(archetype string, x, y float64) SimOption {
	return SimOption{simOptUnit, func(ts *TestSim) { ts.place(archetype, TestDefenderSide, false, x, y) }}
}

// NewTestSim constructs a TestSim from the given options in two ordered passes:
//  1. Infrastructure (variant, terrain, obstacles, seed, verbose)
//  2. Units
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{seed: 1}
	ts.setup.Attacker.SideID = TestAttackerSide
	ts.setup.Defenders = []Force{{SideID: TestDefenderSide}}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	ts.SimLog = NewSimLog(ts.verbose)
	engineOpts := []Option{
		WithSeed(ts.seed),
		WithLog(ts.SimLog),
		WithBattleID("test"),
		WithTickLimit(ts.tickLimit),
		WithProjectionInterval(1),
	}
	ts.Engine = New(ts.setup, append(engineOpts, ts.engineOpts...)...)
	for _, o := range opts {
		if o.kind == simOptUnit {
			o.fn(ts)
		}
	}
	ts.Engine.publishProjection()
	return ts
}

func (ts *TestSim) mapConfig() *MapConfig {
	if ts.setup.MapConfig == nil {
		ts.setup.MapConfig = &MapConfig{}
	}
	return ts.setup.MapConfig
}

// place is the internal helper behind WithAttacker / WithDefender. Unknown
// archetypes are skipped the same way a composition skips them.
func (ts *TestSim) place(archetype string, side SideID, attacking bool, x, y float64) {
	a, ok := ts.Engine.catalog.Archetype(archetype)
	if !ok {
		ts.SimLog.Add(0, "--", string(side), "config", "unknown_archetype", archetype, 1)
		ts.Units = append(ts.Units, nil)
		return
	}
	facing := 0.0
	if !attacking {
		facing = math.Pi
	}
	u := ts.Engine.spawnUnit(a, side, attacking, Vec2{x, y}, facing)
	ts.Units = append(ts.Units, u)
}

// Unit returns the i-th staged unit.
func (ts *TestSim) Unit(i int) *Unit {
	return ts.Units[i]
}

// RunTicks advances the battle up to n ticks, stopping early once it resolves.
// It returns the number of ticks actually run.
func (ts *TestSim) RunTicks(n int) int {
	start := ts.Engine.CurrentTick()
	for i := 0; i < n; i++ {
		if !ts.Engine.Tick() {
			break
		}
	}
	return ts.Engine.CurrentTick() - start
}

// RunUntil advances the simulation up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		running := ts.Engine.Tick()
		if predicate(ts) {
			return ts.Engine.CurrentTick()
		}
		if !running {
			return -1
		}
	}
	return -1
}

// CurrentTick returns the current simulation tick.
func (ts *TestSim) CurrentTick() int {
	return ts.Engine.CurrentTick()
}

// SimSnapshot is a lightweight state summary.
type SimSnapshot struct {
	Tick  int
	Units []UnitSnapshot
}

// UnitSnapshot is a lightweight copy of a unit's state at a tick.
type UnitSnapshot struct {
	ID        UnitID
	Label     string
	Archetype string
	Attacking bool
	Pos       Vec2
	HP        float64
	Shield    float64
	Mana      float64
	Alive     bool
}

// Snapshot returns the current state of every staged unit, dead ones included.
func (ts *TestSim) Snapshot() SimSnapshot {
	snap := SimSnapshot{Tick: ts.Engine.CurrentTick()}
	for _, u := range ts.Units {
		if u == nil {
			continue
		}
		snap.Units = append(snap.Units, UnitSnapshot{
			ID:        u.ID,
			Label:     u.label,
			Archetype: u.ArchetypeID,
			Attacking: u.Attacking,
			Pos:       u.Pos,
			HP:        u.HP,
			Shield:    u.Shield,
			Mana:      u.Mana,
			Alive:     u.Alive(),
		})
	}
	return snap
}
