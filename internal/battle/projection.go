package battle

// UnitView is a read-only copy of a unit for presentation.
type UnitView struct {
	ID          UnitID
	ArchetypeID string
	Side        SideID
	Attacking   bool
	Pos         Vec2
	Facing      float64
	HP          float64
	MaxHP       float64
	Shield      float64
	MaxShield   float64
	Mana        float64
	MaxMana     float64
	Hitbox      float64
	IsHero      bool
	Hold        bool
	Selected    bool
	InTransit   bool
	TargetID    UnitID
	Destination *Vec2
	// Members holds world positions of squad members, in member order.
	Members      []Vec2
	MemberRadius float64
	Abilities    []AbilityView
}

// AbilityView reports a hero ability's readiness.
type AbilityView struct {
	ID       string
	ManaCost float64
	Cooldown int // ticks until ready; 0 when ready
}

// ProjectileView is a read-only copy of a shot in flight.
type ProjectileView struct {
	Pos       Vec2
	Vel       Vec2
	Attacking bool
	Flat      bool
}

// Projection is a throttled snapshot of the battlefield. It shares no
// memory with the live simulation.
type Projection struct {
	Tick        int
	Variant     Variant
	Terrain     string
	Width       float64
	Height      float64
	Units       []UnitView
	Projectiles []ProjectileView
	Flashes     []MuzzleFlash
	Obstacles   []Obstacle
	Outcome     BattleOutcome
}

// buildProjection copies the current state.
func (e *Engine) buildProjection() Projection {
	selected := make(map[UnitID]bool, len(e.selection))
	for _, id := range e.selection {
		selected[id] = true
	}
	p := Projection{
		Tick:      e.tick,
		Variant:   e.domain.Variant,
		Terrain:   e.domain.Terrain.ID,
		Width:     e.domain.Width,
		Height:    e.domain.Height,
		Obstacles: e.domain.Field.Obstacles(),
	}
	if e.result != nil {
		p.Outcome = e.result.Outcome
	}
	for _, u := range e.reg.Live() {
		v := UnitView{
			ID:          u.ID,
			ArchetypeID: u.ArchetypeID,
			Side:        u.Side,
			Attacking:   u.Attacking,
			Pos:         u.Pos,
			Facing:      u.Facing,
			HP:          u.HP,
			MaxHP:       u.arch.MaxHP,
			Shield:      u.Shield,
			MaxShield:   u.arch.MaxShield,
			Mana:        u.Mana,
			MaxMana:     u.arch.MaxMana,
			Hitbox:      u.arch.HitboxRadius,
			IsHero:      u.arch.IsHero,
			Hold:        u.Hold,
			Selected:    selected[u.ID],
			InTransit:   u.Transit != nil,
			TargetID:    u.TargetID,
		}
		if u.Destination != nil {
			d := *u.Destination
			v.Destination = &d
		}
		if u.Kind == KindSquad {
			v.MemberRadius = u.subUnitRadius()
			v.Members = make([]Vec2, len(u.SubUnits))
			for i := range u.SubUnits {
				v.Members[i] = u.SubUnitWorld(i)
			}
		}
		for _, id := range u.arch.Abilities {
			ab, ok := e.catalog.Ability(id)
			if !ok || (e.unlocked != nil && !e.unlocked[id]) {
				continue
			}
			v.Abilities = append(v.Abilities, AbilityView{ID: id, ManaCost: ab.ManaCost, Cooldown: u.abilityCooldowns[id]})
		}
		p.Units = append(p.Units, v)
	}
	for _, pr := range e.combat.projectiles {
		p.Projectiles = append(p.Projectiles, ProjectileView{Pos: pr.Pos, Vel: pr.Vel, Attacking: pr.Attacking, Flat: pr.Flat})
	}
	for _, f := range e.combat.flashes {
		p.Flashes = append(p.Flashes, *f)
	}
	return p
}

// publishProjection swaps in a fresh snapshot for readers.
func (e *Engine) publishProjection() {
	p := e.buildProjection()
	e.projMu.Lock()
	e.projection = p
	e.projMu.Unlock()
}

// Projection returns the latest published snapshot. It is safe to call from
// any goroutine and never touches simulation state.
func (e *Engine) Projection() Projection {
	e.projMu.RLock()
	defer e.projMu.RUnlock()
	return e.projection
}

// Unit returns a view of one live unit from the latest snapshot.
func (p Projection) Unit(id UnitID) (UnitView, bool) {
	for _, u := range p.Units {
		if u.ID == id {
			return u, true
		}
	}
	return UnitView{}, false
}
