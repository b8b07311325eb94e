package battle

import (
	"fmt"
	"sort"
)

// Trait is a tag used for damage-multiplier lookups and passive behaviour.
type Trait string

const (
	TraitBiological   Trait = "biological"
	TraitMechanized   Trait = "mechanized"
	TraitRobotic      Trait = "robotic"
	TraitShielded     Trait = "shielded"
	TraitRegeneration Trait = "regeneration"
	TraitVampirism    Trait = "vampirism"
	TraitRage         Trait = "rage"
	TraitStealth      Trait = "stealth"
)

// Archetype is the immutable stat template shared by every unit of a type.
// Speeds and ranges are in battlefield units; cooldowns are in ticks.
type Archetype struct {
	ID                string
	Speed             float64
	MaxHP             float64
	MaxShield         float64
	BaseDamage        float64
	Range             float64
	AttackCooldown    float64
	HitboxRadius      float64
	Armor             float64
	ArmorPenetration  float64
	Accuracy          float64
	Traits            []Trait
	DamageMultipliers map[Trait]float64
	IsMelee           bool
	IsHero            bool
	Abilities         []string
	MaxMana           float64
	ManaRegenPerTick  float64
	// SquadSize >= 2 makes every unit of this type a squad of that many
	// independently damageable sub-units.
	SquadSize int
}

// HasTrait reports whether the archetype carries t.
func (a Archetype) HasTrait(t Trait) bool {
	for _, x := range a.Traits {
		if x == t {
			return true
		}
	}
	return false
}

// IsSquad reports whether units of this type are built as squads.
func (a Archetype) IsSquad() bool { return a.SquadSize >= 2 }

// traitMultiplier is the product of the attacker's multipliers for every
// trait the defender carries. Traits missing from the table count as 1.
func traitMultiplier(table map[Trait]float64, defender []Trait) float64 {
	m := 1.0
	for _, t := range defender {
		if v, ok := table[t]; ok {
			m *= v
		}
	}
	return m
}

func (a Archetype) validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidArchetype)
	}
	if a.MaxHP <= 0 {
		return fmt.Errorf("%w: %s has non-positive max hp", ErrInvalidArchetype, a.ID)
	}
	if a.Speed < 0 || a.Range < 0 || a.HitboxRadius < 0 {
		return fmt.Errorf("%w: %s has negative speed/range/hitbox", ErrInvalidArchetype, a.ID)
	}
	return nil
}

// clone deep-copies the slices and map so a catalog entry never shares
// storage with caller input.
func (a Archetype) clone() Archetype {
	out := a
	out.Traits = append([]Trait(nil), a.Traits...)
	out.Abilities = append([]string(nil), a.Abilities...)
	if a.DamageMultipliers != nil {
		out.DamageMultipliers = make(map[Trait]float64, len(a.DamageMultipliers))
		for k, v := range a.DamageMultipliers {
			out.DamageMultipliers[k] = v
		}
	}
	out.Accuracy = clamp01(out.Accuracy)
	if out.HitboxRadius <= 0 {
		out.HitboxRadius = defaultHitboxRadius
	}
	if out.AttackCooldown < minCooldownTicks {
		out.AttackCooldown = minCooldownTicks
	}
	return out
}

const defaultHitboxRadius = 8.0

// Catalog is the immutable lookup of archetypes and abilities a battle runs
// against: the built-in tables merged with caller-supplied definitions.
type Catalog struct {
	archetypes map[string]Archetype
	abilities  map[string]AbilityDef
}

// NewCatalog merges custom archetypes and abilities over the built-in
// tables. Unusable entries are skipped; every skip is reported in the
// returned slice so the caller can log it. Custom entries override built-ins
// with the same id.
func NewCatalog(custom []Archetype, abilities []AbilityDef) (*Catalog, []error) {
	var issues []error
	c := &Catalog{
		archetypes: make(map[string]Archetype, len(baseArchetypes)+len(custom)),
		abilities:  make(map[string]AbilityDef, len(baseAbilities)+len(abilities)),
	}
	for _, a := range baseArchetypes {
		c.archetypes[a.ID] = a.clone()
	}
	for _, a := range custom {
		if err := a.validate(); err != nil {
			issues = append(issues, err)
			continue
		}
		c.archetypes[a.ID] = a.clone()
	}

	for _, ab := range baseAbilities {
		c.abilities[ab.ID] = ab
	}
	for _, ab := range abilities {
		if ab.ID == "" {
			issues = append(issues, fmt.Errorf("%w: empty ability id", ErrUnknownAbility))
			continue
		}
		c.abilities[ab.ID] = ab
	}
	// Summons must name a real archetype.
	for id, ab := range c.abilities {
		if ab.Effect != EffectSummon {
			continue
		}
		if _, ok := c.archetypes[ab.SummonArchetype]; !ok {
			issues = append(issues, fmt.Errorf("%w: ability %s summons %q", ErrUnknownArchetype, id, ab.SummonArchetype))
			delete(c.abilities, id)
		}
	}
	// Hero ability lists may only reference abilities that survived.
	for id, a := range c.archetypes {
		kept := a.Abilities[:0]
		for _, abID := range a.Abilities {
			if _, ok := c.abilities[abID]; ok {
				kept = append(kept, abID)
				continue
			}
			issues = append(issues, fmt.Errorf("%w: %s lists %q", ErrUnknownAbility, id, abID))
		}
		a.Abilities = kept
		c.archetypes[id] = a
	}
	return c, issues
}

// Archetype looks up a unit type.
func (c *Catalog) Archetype(id string) (Archetype, bool) {
	a, ok := c.archetypes[id]
	return a, ok
}

// Ability looks up an ability definition.
func (c *Catalog) Ability(id string) (AbilityDef, bool) {
	ab, ok := c.abilities[id]
	return ab, ok
}

// ArchetypeIDs returns every known type id in sorted order.
func (c *Catalog) ArchetypeIDs() []string {
	ids := make([]string, 0, len(c.archetypes))
	for id := range c.archetypes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// baseArchetypes is the built-in unit table. Space types come first, then
// ground types.
var baseArchetypes = []Archetype{
	// --- Space ---
	{
		ID: "fighter", Speed: 3.2, MaxHP: 20, BaseDamage: 4, Range: 160, AttackCooldown: 24,
		HitboxRadius: 6, Accuracy: 0.75, Traits: []Trait{TraitMechanized},
		DamageMultipliers: map[Trait]float64{TraitRobotic: 1.2},
	},
	{
		ID: "bomber", Speed: 2.2, MaxHP: 45, BaseDamage: 18, Range: 120, AttackCooldown: 70,
		HitboxRadius: 8, Armor: 5, ArmorPenetration: 25, Accuracy: 0.6, Traits: []Trait{TraitMechanized},
		DamageMultipliers: map[Trait]float64{TraitShielded: 1.5},
	},
	{
		ID: "corvette", Speed: 2.4, MaxHP: 90, MaxShield: 30, BaseDamage: 9, Range: 220, AttackCooldown: 36,
		HitboxRadius: 10, Armor: 10, Accuracy: 0.7, Traits: []Trait{TraitMechanized, TraitShielded},
	},
	{
		ID: "frigate", Speed: 1.8, MaxHP: 180, MaxShield: 60, BaseDamage: 16, Range: 280, AttackCooldown: 48,
		HitboxRadius: 14, Armor: 20, ArmorPenetration: 10, Accuracy: 0.65,
		Traits: []Trait{TraitMechanized, TraitShielded},
	},
	{
		ID: "cruiser", Speed: 1.2, MaxHP: 420, MaxShield: 140, BaseDamage: 30, Range: 340, AttackCooldown: 72,
		HitboxRadius: 20, Armor: 35, ArmorPenetration: 20, Accuracy: 0.6,
		Traits: []Trait{TraitMechanized, TraitShielded},
	},
	{
		ID: "defense_platform", Speed: 0, MaxHP: 600, MaxShield: 200, BaseDamage: 26, Range: 360,
		AttackCooldown: 40, HitboxRadius: 22, Armor: 40, ArmorPenetration: 15, Accuracy: 0.7,
		Traits: []Trait{TraitMechanized, TraitShielded},
	},
	{
		ID: "flagship", Speed: 1.0, MaxHP: 900, MaxShield: 300, BaseDamage: 40, Range: 380, AttackCooldown: 60,
		HitboxRadius: 26, Armor: 45, ArmorPenetration: 30, Accuracy: 0.7,
		Traits:    []Trait{TraitMechanized, TraitShielded},
		IsHero:    true,
		Abilities: []string{"orbital_strike", "warp_jump", "deploy_drones", "plasma_lance", "overdrive"},
		MaxMana:   200, ManaRegenPerTick: 0.25,
	},
	{
		ID: "drone", Speed: 3.6, MaxHP: 12, BaseDamage: 3, Range: 110, AttackCooldown: 20,
		HitboxRadius: 5, Accuracy: 0.7, Traits: []Trait{TraitRobotic},
	},

	// --- Ground ---
	{
		ID: "infantry", Speed: 1.1, MaxHP: 100, BaseDamage: 5, Range: 150, AttackCooldown: 40,
		HitboxRadius: 14, Armor: 5, Accuracy: 0.65, Traits: []Trait{TraitBiological},
		DamageMultipliers: map[Trait]float64{TraitBiological: 1.25, TraitMechanized: 0.6},
		SquadSize:         5,
	},
	{
		ID: "marines", Speed: 1.2, MaxHP: 120, BaseDamage: 9, Range: 18, AttackCooldown: 30,
		HitboxRadius: 12, Armor: 10, Accuracy: 0.85, IsMelee: true,
		Traits:            []Trait{TraitBiological, TraitVampirism},
		DamageMultipliers: map[Trait]float64{TraitBiological: 1.3},
		SquadSize:         4,
	},
	{
		ID: "ranger", Speed: 1.5, MaxHP: 60, BaseDamage: 12, Range: 240, AttackCooldown: 55,
		HitboxRadius: 7, Armor: 2, ArmorPenetration: 10, Accuracy: 0.8,
		Traits: []Trait{TraitBiological, TraitStealth},
	},
	{
		ID: "tank", Speed: 0.9, MaxHP: 320, MaxShield: 80, BaseDamage: 28, Range: 260, AttackCooldown: 75,
		HitboxRadius: 16, Armor: 50, ArmorPenetration: 40, Accuracy: 0.7,
		Traits:            []Trait{TraitMechanized, TraitShielded},
		DamageMultipliers: map[Trait]float64{TraitMechanized: 1.4, TraitBiological: 0.8},
	},
	{
		ID: "artillery", Speed: 0.6, MaxHP: 140, BaseDamage: 45, Range: 420, AttackCooldown: 120,
		HitboxRadius: 14, Armor: 15, ArmorPenetration: 30, Accuracy: 0.5, Traits: []Trait{TraitMechanized},
	},
	{
		ID: "walker", Speed: 1.0, MaxHP: 260, BaseDamage: 20, Range: 24, AttackCooldown: 35,
		HitboxRadius: 15, Armor: 30, ArmorPenetration: 20, Accuracy: 0.8, IsMelee: true,
		Traits: []Trait{TraitRobotic, TraitRage, TraitRegeneration},
	},
	{
		ID: "turret", Speed: 0, MaxHP: 400, MaxShield: 100, BaseDamage: 14, Range: 300, AttackCooldown: 30,
		HitboxRadius: 16, Armor: 40, ArmorPenetration: 15, Accuracy: 0.75,
		Traits: []Trait{TraitMechanized, TraitShielded},
	},
	{
		ID: "commander", Speed: 1.3, MaxHP: 500, MaxShield: 120, BaseDamage: 22, Range: 200, AttackCooldown: 45,
		HitboxRadius: 12, Armor: 25, ArmorPenetration: 20, Accuracy: 0.8,
		Traits:    []Trait{TraitBiological, TraitShielded, TraitRegeneration},
		IsHero:    true,
		Abilities: []string{"nanite_cloud", "rally", "sunder", "battle_focus", "warp_jump", "orbital_strike"},
		MaxMana:   150, ManaRegenPerTick: 0.2,
	},
}
