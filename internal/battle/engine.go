package battle

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// TicksPerSecond is the fixed simulation rate.
const TicksPerSecond = 60

// defaultProjectionInterval republishes the projection at about 10Hz.
const defaultProjectionInterval = 6

// Lifecycle states and events.
const (
	StateReady    = "ready"
	StateRunning  = "running"
	StateResolved = "resolved"

	eventStart   = "start"
	eventResolve = "resolve"
)

// Engine is one battle: a fixed-rate simulation from an initial setup to a
// single terminal Result. Tick must be driven from one goroutine; Submit and
// Projection may be called from any goroutine.
type Engine struct {
	catalog *Catalog
	domain  Domain
	reg     *Registry
	combat  *CombatManager
	rng     *rand.Rand
	log     *SimLog

	tick         int
	battleID     string
	attackerSide SideID
	unlocked     map[string]bool

	selection       []UnitID
	controlAttacker bool

	tickLimit    int
	projInterval int
	onResult     func(Result)
	result       *Result
	lifecycle    *fsm.FSM

	mu     sync.Mutex
	queue  []Command
	closed bool

	projMu     sync.RWMutex
	projection Projection
}

type engineConfig struct {
	seed            int64
	log             *SimLog
	battleID        string
	projInterval    int
	tickLimit       int
	onResult        func(Result)
	controlAttacker bool
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithSeed fixes the random source; the same seed and inputs replay the
// same battle.
func WithSeed(seed int64) Option {
	return func(c *engineConfig) { c.seed = seed }
}

// WithLog records events into l instead of a private non-verbose log.
func WithLog(l *SimLog) Option {
	return func(c *engineConfig) { c.log = l }
}

// WithBattleID stamps results with id instead of a fresh uuid.
func WithBattleID(id string) Option {
	return func(c *engineConfig) { c.battleID = id }
}

// WithProjectionInterval sets how many ticks pass between projection rebuilds.
func WithProjectionInterval(ticks int) Option {
	return func(c *engineConfig) { c.projInterval = ticks }
}

// WithTickLimit ends an undecided battle as a draw after n ticks. Zero
// disables the limit.
func WithTickLimit(n int) Option {
	return func(c *engineConfig) { c.tickLimit = n }
}

// WithResultHandler registers fn to receive the terminal event. It is
// called exactly once, from the ticking goroutine.
func WithResultHandler(fn func(Result)) Option {
	return func(c *engineConfig) { c.onResult = fn }
}

// WithControlledSide chooses which side selection commands act on.
func WithControlledSide(attacking bool) Option {
	return func(c *engineConfig) { c.controlAttacker = attacking }
}

// New builds a battle from setup. Unknown archetypes, abilities and terrain
// are skipped and logged under the config category; construction itself
// never fails.
func New(setup Setup, opts ...Option) *Engine {
	cfg := engineConfig{
		seed:            1,
		projInterval:    defaultProjectionInterval,
		controlAttacker: true,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.log == nil {
		cfg.log = NewSimLog(false)
	}
	if cfg.battleID == "" {
		cfg.battleID = uuid.NewString()
	}
	if cfg.projInterval < 1 {
		cfg.projInterval = 1
	}

	combat := NewCombatManager(cfg.seed)
	e := &Engine{
		reg:             NewRegistry(),
		combat:          combat,
		rng:             combat.rng,
		log:             cfg.log,
		battleID:        cfg.battleID,
		attackerSide:    setup.Attacker.SideID,
		controlAttacker: cfg.controlAttacker,
		tickLimit:       cfg.tickLimit,
		projInterval:    cfg.projInterval,
		onResult:        cfg.onResult,
	}
	e.lifecycle = fsm.NewFSM(
		StateReady,
		fsm.Events{
			{Name: eventStart, Src: []string{StateReady}, Dst: StateRunning},
			{Name: eventResolve, Src: []string{StateReady, StateRunning}, Dst: StateResolved},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, ev *fsm.Event) {
				e.log.Add(e.tick, "--", "--", "outcome", "state", ev.Src+" → "+ev.Dst, 0)
			},
		},
	)

	catalog, issues := NewCatalog(setup.CustomArchetypes, setup.AbilityCatalog)
	e.catalog = catalog
	for _, err := range issues {
		e.log.Add(0, "--", "--", "config", "skipped", err.Error(), 0)
	}
	domain, issues := buildDomain(setup)
	e.domain = domain
	for _, err := range issues {
		e.log.Add(0, "--", "--", "config", "terrain", err.Error(), 0)
	}
	if setup.HeroUnlocks != nil {
		e.unlocked = make(map[string]bool, len(setup.HeroUnlocks.UnlockedAbilityIDs))
		for _, id := range setup.HeroUnlocks.UnlockedAbilityIDs {
			e.unlocked[id] = true
		}
	}
	e.log.Add(0, "--", "--", "config", "battle",
		fmt.Sprintf("%s %s terrain=%s seed=%d", e.battleID, domain.Variant, domain.Terrain.ID, cfg.seed), 0)

	e.spawnForces(setup)
	e.publishProjection()
	return e
}

// Tick advances the battle one step and reports whether it is still running.
// Once a result exists further calls do nothing.
func (e *Engine) Tick() bool {
	if e.result != nil {
		return false
	}
	if e.lifecycle.Is(StateReady) {
		e.transition(eventStart)
	}
	e.tick++

	e.flushCommands()
	for _, u := range e.reg.Live() {
		e.maintain(u)
	}
	e.updateTargeting()
	e.updateMovement()
	e.reg.compact()
	e.updateCombat()
	e.reg.compact()

	if res, done := e.evaluate(); done {
		e.resolve(res)
		return false
	}
	if e.tick%e.projInterval == 0 {
		e.publishProjection()
	}
	return true
}

// resolve records the terminal event and stops the battle.
func (e *Engine) resolve(res Result) {
	e.result = &res
	e.mu.Lock()
	e.closed = true
	e.queue = nil
	e.mu.Unlock()
	e.transition(eventResolve)
	e.log.Add(e.tick, "--", string(res.WinningSideID), "outcome", res.Outcome.String(),
		fmt.Sprintf("%s attackers=%d defenders=%d", res.Reason, len(res.SurvivingAttackers), len(res.SurvivingDefenders)),
		float64(e.tick))
	e.selection = nil
	e.publishProjection()
	if e.onResult != nil {
		e.onResult(res)
	}
}

// transition fires a lifecycle event. A refused transition is logged; the
// battle itself carries on.
func (e *Engine) transition(event string) {
	err := e.lifecycle.Event(context.Background(), event)
	var same fsm.NoTransitionError
	if err == nil || errors.As(err, &same) {
		return
	}
	e.log.Add(e.tick, "--", "--", "outcome", "lifecycle_error", fmt.Sprintf("%s: %v", event, err), 0)
}

// Run ticks until the battle resolves or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	for e.Tick() {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("battle %s stopped at tick %d: %w", e.battleID, e.tick, err)
		}
	}
	return *e.result, nil
}

// Result returns the terminal event once the battle has resolved.
func (e *Engine) Result() (Result, bool) {
	if e.result == nil {
		return Result{}, false
	}
	return *e.result, true
}

// State is the lifecycle state: ready, running or resolved.
func (e *Engine) State() string { return e.lifecycle.Current() }

// CurrentTick is the number of ticks processed so far.
func (e *Engine) CurrentTick() int { return e.tick }

// BattleID identifies this battle in results and logs.
func (e *Engine) BattleID() string { return e.battleID }

// Log returns the event log.
func (e *Engine) Log() *SimLog { return e.log }

// Catalog returns the merged archetype and ability catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Domain returns the battle's domain configuration.
func (e *Engine) Domain() Domain { return e.domain }

// Units returns the living units in spawn order. Tick-goroutine only.
func (e *Engine) Units() []*Unit { return e.reg.Live() }

// Selection returns the currently selected ids. Tick-goroutine only.
func (e *Engine) Selection() []UnitID { return append([]UnitID(nil), e.selection...) }

// Submit queues a command for the start of the next tick. Once the battle
// has resolved it returns ErrResolved and the command is dropped.
func (e *Engine) Submit(c Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrResolved
	}
	e.queue = append(e.queue, c)
	return nil
}

// Select replaces the selection.
func (e *Engine) Select(ids ...UnitID) error { return e.Submit(SelectCmd{IDs: ids}) }

// SelectRegion selects the controlled units inside the rectangle a-b.
func (e *Engine) SelectRegion(a, b Vec2) error { return e.Submit(SelectRegionCmd{A: a, B: b}) }

// IssueOrder sends the selection to p, attacking whatever enemy is there.
func (e *Engine) IssueOrder(p Vec2) error { return e.Submit(OrderCmd{Point: p}) }

// IssueFormationOrder spreads the selection along a drag.
func (e *Engine) IssueFormationOrder(start, end Vec2) error {
	return e.Submit(FormationCmd{Start: start, End: end})
}

// ToggleHoldPosition flips hold on the selection.
func (e *Engine) ToggleHoldPosition() error { return e.Submit(HoldCmd{}) }

// SetFacing turns the selection to angle.
func (e *Engine) SetFacing(angle float64) error { return e.Submit(FacingCmd{Angle: angle}) }

// CastAbility queues a hero ability. point may be nil for untargeted abilities.
func (e *Engine) CastAbility(caster UnitID, ability string, point *Vec2) error {
	return e.Submit(CastCmd{Caster: caster, Ability: ability, Point: point})
}
