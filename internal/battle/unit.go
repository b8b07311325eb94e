package battle

import (
	"fmt"
	"math"
)

// UnitID identifies a unit for the lifetime of a battle. Zero is never
// assigned and means "no unit".
type UnitID int

// SideID names one force taking part in the battle.
type SideID string

// UnitKind tags the unit variant.
type UnitKind int

const (
	KindSingle UnitKind = iota
	KindSquad
)

// SubUnit is one independently positioned, independently damageable member
// of a squad. Offset is local to the squad and rotated by its facing.
type SubUnit struct {
	Offset   Vec2
	HP       float64
	MaxHP    float64
	Cooldown float64
}

// Buff is a timed additive stat modifier.
type Buff struct {
	Stat           Stat
	Amount         float64
	RemainingTicks int
	SourceID       UnitID // weak reference; may be stale
}

// Transit is the un-targetable window of a dash. Position is interpolated
// from Start to Landing over Duration ticks.
type Transit struct {
	Start        Vec2
	Landing      Vec2
	Progress     int
	Duration     int
	ImpactRadius float64
	ImpactDamage float64
}

// Stats is the per-tick effective-stat overlay derived from the archetype,
// active buffs and terrain. Base archetype stats are never written.
type Stats struct {
	Damage   float64
	Armor    float64
	Speed    float64
	Cooldown float64
	Range    float64
	Accuracy float64
}

// Unit is a live battlefield entity owned by the Registry.
type Unit struct {
	ID          UnitID
	Kind        UnitKind
	ArchetypeID string
	Side        SideID
	Attacking   bool

	Pos    Vec2
	Facing float64

	HP       float64
	Shield   float64
	Mana     float64
	Cooldown float64

	// TargetID is a weak reference resolved through the registry on every use.
	TargetID     UnitID
	manualTarget bool

	Destination     *Vec2
	Hold            bool
	FormationFacing *float64

	Buffs    []Buff
	SubUnits []SubUnit
	Transit  *Transit

	arch             Archetype
	eff              Stats
	abilityCooldowns map[string]int
	edgeDir          int // obstacle edge-walk turn, 0 when moving freely
	revealedUntil    int // last tick a stealthed unit stays visible after firing
	dead             bool
	label            string
}

// Archetype returns the unit's immutable template.
func (u *Unit) Archetype() Archetype { return u.arch }

// Effective returns the stat overlay computed for the current tick.
func (u *Unit) Effective() Stats { return u.eff }

// Alive reports whether the unit is still in play.
func (u *Unit) Alive() bool { return !u.dead }

// InTransit reports whether the unit is mid-dash.
func (u *Unit) InTransit() bool { return u.Transit != nil }

// Label is a short human-readable handle used in logs.
func (u *Unit) Label() string { return u.label }

// IsSquad reports whether the unit is the squad variant.
func (u *Unit) IsSquad() bool { return u.Kind == KindSquad }

// MaxHP returns the archetype's hp cap.
func (u *Unit) MaxHP() float64 { return u.arch.MaxHP }

// Opposes reports whether o fights on the other side of the battle.
// Defender forces with different side ids are allies.
func (u *Unit) Opposes(o *Unit) bool { return u.Attacking != o.Attacking }

// SubUnitWorld returns the world position of squad member i.
func (u *Unit) SubUnitWorld(i int) Vec2 {
	return u.Pos.Add(u.SubUnits[i].Offset.Rotate(u.Facing))
}

// subUnitRadius is the hit radius of one squad member.
func (u *Unit) subUnitRadius() float64 {
	n := u.arch.SquadSize
	if n < 2 {
		return u.arch.HitboxRadius
	}
	return math.Max(2, u.arch.HitboxRadius/math.Sqrt(float64(n)))
}

// syncSquadHP restores the invariant hp == sum(sub-unit hp).
func (u *Unit) syncSquadHP() {
	if u.Kind != KindSquad {
		return
	}
	total := 0.0
	for _, s := range u.SubUnits {
		total += s.HP
	}
	u.HP = total
}

// newUnit builds a unit of archetype a at pos. Squads get their sub-units
// laid out on a square grid centred on the squad.
func newUnit(id UnitID, a Archetype, side SideID, attacking bool, pos Vec2, facing float64) *Unit {
	u := &Unit{
		ID:               id,
		Kind:             KindSingle,
		ArchetypeID:      a.ID,
		Side:             side,
		Attacking:        attacking,
		Pos:              pos,
		Facing:           facing,
		HP:               a.MaxHP,
		Shield:           a.MaxShield,
		Mana:             a.MaxMana,
		arch:             a,
		abilityCooldowns: map[string]int{},
	}
	prefix := "D"
	if attacking {
		prefix = "A"
	}
	u.label = fmt.Sprintf("%s%d", prefix, id)
	if a.IsSquad() {
		u.Kind = KindSquad
		u.SubUnits = squadLayout(a, u.subUnitRadius())
		u.syncSquadHP()
	}
	u.eff = baseStats(a, IdentityTerrain)
	return u
}

// squadLayout places SquadSize members on a grid with a gap of one member
// diameter between neighbours.
func squadLayout(a Archetype, radius float64) []SubUnit {
	n := a.SquadSize
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	spacing := radius*2 + 2
	hp := a.MaxHP / float64(n)
	subs := make([]SubUnit, 0, n)
	for i := 0; i < n; i++ {
		c := i % cols
		r := i / cols
		off := Vec2{
			X: (float64(c) - float64(cols-1)/2) * spacing,
			Y: (float64(r) - float64(rows-1)/2) * spacing,
		}
		subs = append(subs, SubUnit{Offset: off, HP: hp, MaxHP: hp})
	}
	return subs
}
