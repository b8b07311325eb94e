// Package scenario loads battle setups from YAML files.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Garsondee/battle-resolver/internal/battle"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid scenario")

// File is the on-disk form of a scenario.
type File struct {
	Name      string         `yaml:"name"`
	Variant   string         `yaml:"variant"` // space | ground
	Seed      int64          `yaml:"seed"`
	TickLimit int            `yaml:"tick_limit"`
	Attacker  ForceDef       `yaml:"attacker"`
	Defenders []ForceDef     `yaml:"defenders"`
	Garrison  map[string]int `yaml:"garrison"`
	Map       *MapDef        `yaml:"map"`

	// HeroUnlocks restricts hero abilities when present, even if empty.
	HeroUnlocks *UnlocksDef `yaml:"hero_unlocks"`

	Archetypes []ArchetypeDef `yaml:"archetypes"`
	Abilities  []AbilityDef   `yaml:"abilities"`
}

// ForceDef is one side's order of battle.
type ForceDef struct {
	Side  string         `yaml:"side"`
	Units map[string]int `yaml:"units"`
}

// MapDef describes a ground battlefield.
type MapDef struct {
	Terrain    string        `yaml:"terrain"`
	Width      float64       `yaml:"width"`
	Height     float64       `yaml:"height"`
	Obstacles  []ObstacleDef `yaml:"obstacles"`
	SpawnZones struct {
		Attacker *ZoneDef `yaml:"attacker"`
		Defender *ZoneDef `yaml:"defender"`
	} `yaml:"spawn_zones"`
}

// ObstacleDef is a circle (x, y, r) or an axis-aligned rect (x, y, w, h)
// centred on (x, y).
type ObstacleDef struct {
	Shape string  `yaml:"shape"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	R     float64 `yaml:"r"`
	W     float64 `yaml:"w"`
	H     float64 `yaml:"h"`
}

// ZoneDef is a spawn rectangle given by two corners.
type ZoneDef struct {
	Min [2]float64 `yaml:"min"`
	Max [2]float64 `yaml:"max"`
}

// UnlocksDef lists the hero abilities that may be cast.
type UnlocksDef struct {
	Abilities []string `yaml:"abilities"`
}

// ArchetypeDef is a custom unit type.
type ArchetypeDef struct {
	ID          string             `yaml:"id"`
	Speed       float64            `yaml:"speed"`
	MaxHP       float64            `yaml:"max_hp"`
	MaxShield   float64            `yaml:"max_shield"`
	Damage      float64            `yaml:"damage"`
	Range       float64            `yaml:"range"`
	Cooldown    float64            `yaml:"cooldown"`
	Hitbox      float64            `yaml:"hitbox"`
	Armor       float64            `yaml:"armor"`
	Penetration float64            `yaml:"penetration"`
	Accuracy    float64            `yaml:"accuracy"`
	Traits      []string           `yaml:"traits"`
	Multipliers map[string]float64 `yaml:"multipliers"`
	Melee       bool               `yaml:"melee"`
	Hero        bool               `yaml:"hero"`
	Abilities   []string           `yaml:"abilities"`
	MaxMana     float64            `yaml:"max_mana"`
	ManaRegen   float64            `yaml:"mana_regen"`
	SquadSize   int                `yaml:"squad_size"`
}

// AbilityDef is a custom ability.
type AbilityDef struct {
	ID              string   `yaml:"id"`
	Target          string   `yaml:"target"`
	Effect          string   `yaml:"effect"`
	ManaCost        float64  `yaml:"mana_cost"`
	Cooldown        int      `yaml:"cooldown"`
	Range           float64  `yaml:"range"`
	Radius          float64  `yaml:"radius"`
	Amount          float64  `yaml:"amount"`
	Buff            *BuffDef `yaml:"buff"`
	Summon          string   `yaml:"summon"`
	SummonCount     int      `yaml:"summon_count"`
	DashDuration    int      `yaml:"dash_duration"`
	ImpactRadius    float64  `yaml:"impact_radius"`
	ImpactDamage    float64  `yaml:"impact_damage"`
	ProjectileSpeed float64  `yaml:"projectile_speed"`
}

// BuffDef is the timed modifier a buff ability applies.
type BuffDef struct {
	Stat     string  `yaml:"stat"`
	Amount   float64 `yaml:"amount"`
	Duration int     `yaml:"duration"`
}

// Load reads and validates the scenario at path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a scenario document. Unknown keys are rejected so that a
// misspelt field does not silently fall back to a default.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if f.Variant == "" {
		f.Variant = "space"
	}
	if f.Attacker.Side == "" {
		f.Attacker.Side = "attacker"
	}
	for i := range f.Defenders {
		if f.Defenders[i].Side == "" {
			f.Defenders[i].Side = fmt.Sprintf("defender%d", i+1)
		}
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.Variant != "space" && f.Variant != "ground" {
		return fmt.Errorf("%w: variant %q (want space or ground)", ErrInvalid, f.Variant)
	}
	if f.TickLimit < 0 {
		return fmt.Errorf("%w: negative tick_limit", ErrInvalid)
	}
	forces := append([]ForceDef{f.Attacker}, f.Defenders...)
	for _, force := range forces {
		for id, n := range force.Units {
			if n < 0 {
				return fmt.Errorf("%w: side %s has %d %s", ErrInvalid, force.Side, n, id)
			}
		}
	}
	if f.Map != nil {
		for i, o := range f.Map.Obstacles {
			switch o.Shape {
			case "circle":
				if o.R <= 0 {
					return fmt.Errorf("%w: obstacle %d: circle needs r > 0", ErrInvalid, i)
				}
			case "rect":
				if o.W <= 0 || o.H <= 0 {
					return fmt.Errorf("%w: obstacle %d: rect needs w, h > 0", ErrInvalid, i)
				}
			default:
				return fmt.Errorf("%w: obstacle %d: shape %q", ErrInvalid, i, o.Shape)
			}
		}
	}
	for _, ab := range f.Abilities {
		if _, ok := targetModes[ab.Target]; !ok {
			return fmt.Errorf("%w: ability %s: target %q", ErrInvalid, ab.ID, ab.Target)
		}
		if _, ok := effects[ab.Effect]; !ok {
			return fmt.Errorf("%w: ability %s: effect %q", ErrInvalid, ab.ID, ab.Effect)
		}
		if ab.Effect == string(battle.EffectBuff) && ab.Buff == nil {
			return fmt.Errorf("%w: ability %s: buff effect without buff", ErrInvalid, ab.ID)
		}
	}
	return nil
}

var targetModes = map[string]battle.TargetMode{
	"self":        battle.TargetSelf,
	"point":       battle.TargetPoint,
	"area":        battle.TargetArea,
	"singleEnemy": battle.TargetSingleEnemy,
	"singleAlly":  battle.TargetSingleAlly,
	"instant":     battle.TargetInstant,
}

var effects = map[string]battle.Effect{
	"damageProjectile": battle.EffectDamageProjectile,
	"areaDamage":       battle.EffectAreaDamage,
	"areaHeal":         battle.EffectAreaHeal,
	"buff":             battle.EffectBuff,
	"summon":           battle.EffectSummon,
	"dash":             battle.EffectDash,
}

// Setup converts the scenario into engine input.
func (f *File) Setup() battle.Setup {
	s := battle.Setup{
		Variant:  battle.VariantSpace,
		Attacker: force(f.Attacker),
	}
	if f.Variant == "ground" {
		s.Variant = battle.VariantGround
	}
	for _, d := range f.Defenders {
		s.Defenders = append(s.Defenders, force(d))
	}
	if f.Garrison != nil {
		s.Garrison = &battle.Garrison{Composition: battle.Composition(f.Garrison)}
	}
	if f.HeroUnlocks != nil {
		s.HeroUnlocks = &battle.HeroUnlocks{UnlockedAbilityIDs: append([]string{}, f.HeroUnlocks.Abilities...)}
	}
	if m := f.Map; m != nil {
		mc := &battle.MapConfig{TerrainID: m.Terrain, Width: m.Width, Height: m.Height}
		for _, o := range m.Obstacles {
			if o.Shape == "circle" {
				mc.Obstacles = append(mc.Obstacles, battle.CircleObstacle(o.X, o.Y, o.R))
			} else {
				mc.Obstacles = append(mc.Obstacles, battle.RectObstacle(o.X, o.Y, o.W, o.H))
			}
		}
		mc.SpawnZones.Attacker = zone(m.SpawnZones.Attacker)
		mc.SpawnZones.Defender = zone(m.SpawnZones.Defender)
		s.MapConfig = mc
	}
	for _, a := range f.Archetypes {
		s.CustomArchetypes = append(s.CustomArchetypes, archetype(a))
	}
	for _, ab := range f.Abilities {
		s.AbilityCatalog = append(s.AbilityCatalog, ability(ab))
	}
	return s
}

// Options returns the engine options the scenario pins down.
func (f *File) Options() []battle.Option {
	opts := []battle.Option{battle.WithTickLimit(f.TickLimit)}
	if f.Seed != 0 {
		opts = append(opts, battle.WithSeed(f.Seed))
	}
	return opts
}

// Summary is a one-line description of the forces, for logs and reports.
func (f *File) Summary() string {
	return fmt.Sprintf("%s [%s] %s %s vs %d defender force(s)",
		f.Name, f.Variant, f.Attacker.Side, composition(f.Attacker.Units), len(f.Defenders))
}

func force(d ForceDef) battle.Force {
	return battle.Force{SideID: battle.SideID(d.Side), Composition: battle.Composition(d.Units)}
}

func zone(z *ZoneDef) *battle.Zone {
	if z == nil {
		return nil
	}
	return &battle.Zone{
		Min: battle.Vec2{X: z.Min[0], Y: z.Min[1]},
		Max: battle.Vec2{X: z.Max[0], Y: z.Max[1]},
	}
}

func archetype(d ArchetypeDef) battle.Archetype {
	a := battle.Archetype{
		ID:               d.ID,
		Speed:            d.Speed,
		MaxHP:            d.MaxHP,
		MaxShield:        d.MaxShield,
		BaseDamage:       d.Damage,
		Range:            d.Range,
		AttackCooldown:   d.Cooldown,
		HitboxRadius:     d.Hitbox,
		Armor:            d.Armor,
		ArmorPenetration: d.Penetration,
		Accuracy:         d.Accuracy,
		IsMelee:          d.Melee,
		IsHero:           d.Hero,
		Abilities:        d.Abilities,
		MaxMana:          d.MaxMana,
		ManaRegenPerTick: d.ManaRegen,
		SquadSize:        d.SquadSize,
	}
	for _, t := range d.Traits {
		a.Traits = append(a.Traits, battle.Trait(t))
	}
	if len(d.Multipliers) > 0 {
		a.DamageMultipliers = make(map[battle.Trait]float64, len(d.Multipliers))
		for t, m := range d.Multipliers {
			a.DamageMultipliers[battle.Trait(t)] = m
		}
	}
	return a
}

func ability(d AbilityDef) battle.AbilityDef {
	ab := battle.AbilityDef{
		ID:              d.ID,
		TargetMode:      targetModes[d.Target],
		Effect:          effects[d.Effect],
		ManaCost:        d.ManaCost,
		Cooldown:        d.Cooldown,
		Range:           d.Range,
		Radius:          d.Radius,
		Amount:          d.Amount,
		SummonArchetype: d.Summon,
		SummonCount:     d.SummonCount,
		DashDuration:    d.DashDuration,
		ImpactRadius:    d.ImpactRadius,
		ImpactDamage:    d.ImpactDamage,
		ProjectileSpeed: d.ProjectileSpeed,
	}
	if d.Buff != nil {
		ab.Buff = battle.BuffSpec{Stat: battle.Stat(d.Buff.Stat), Amount: d.Buff.Amount, Duration: d.Buff.Duration}
	}
	return ab
}

// composition renders a unit map in key order, e.g. "{fighter:3 frigate:1}".
func composition(units map[string]int) string {
	keys := make([]string, 0, len(units))
	for k := range units {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s:%d", k, units[k])
	}
	b.WriteByte('}')
	return b.String()
}
