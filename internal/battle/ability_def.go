package battle

// TargetMode says what a cast must be aimed at.
type TargetMode string

const (
	TargetSelf        TargetMode = "self"
	TargetPoint       TargetMode = "point"
	TargetArea        TargetMode = "area"
	TargetSingleEnemy TargetMode = "singleEnemy"
	TargetSingleAlly  TargetMode = "singleAlly"
	TargetInstant     TargetMode = "instant"
)

// NeedsPoint reports whether casts in this mode must carry a target point.
func (m TargetMode) NeedsPoint() bool {
	switch m {
	case TargetPoint, TargetArea, TargetSingleEnemy, TargetSingleAlly:
		return true
	}
	return false
}

// Effect is the archetype of what an ability does once cast.
type Effect string

const (
	EffectDamageProjectile Effect = "damageProjectile"
	EffectAreaDamage       Effect = "areaDamage"
	EffectAreaHeal         Effect = "areaHeal"
	EffectBuff             Effect = "buff"
	EffectSummon           Effect = "summon"
	EffectDash             Effect = "dash"
)

// Stat names a quantity a buff can modify.
type Stat string

const (
	StatDamage   Stat = "damage"
	StatArmor    Stat = "armor"
	StatSpeed    Stat = "speed"
	StatCooldown Stat = "cooldown"
)

// BuffSpec is the template a buff ability stamps onto each affected unit.
type BuffSpec struct {
	Stat     Stat
	Amount   float64
	Duration int
}

// AbilityDef is an immutable ability definition.
type AbilityDef struct {
	ID         string
	TargetMode TargetMode
	ManaCost   float64
	Cooldown   int // ticks; 0 means no cooldown
	Effect     Effect
	// Range limits how far from the caster the target point may be. Zero
	// means unlimited. Dash landings are clamped to it instead of rejected.
	Range float64

	Radius float64 // areaDamage, areaHeal, area/point buffs
	Amount float64 // damage or heal amount; projectile damage

	Buff BuffSpec

	SummonArchetype string
	SummonCount     int

	DashDuration int
	ImpactRadius float64
	ImpactDamage float64

	ProjectileSpeed float64
}

// baseAbilities is the built-in ability table.
var baseAbilities = []AbilityDef{
	{
		ID: "orbital_strike", TargetMode: TargetPoint, ManaCost: 80, Cooldown: 600,
		Effect: EffectAreaDamage, Radius: 90, Amount: 120,
	},
	{
		ID: "nanite_cloud", TargetMode: TargetArea, ManaCost: 50, Cooldown: 360,
		Effect: EffectAreaHeal, Radius: 120, Amount: 80,
	},
	{
		ID: "overdrive", TargetMode: TargetSelf, ManaCost: 40, Cooldown: 480,
		Effect: EffectBuff, Buff: BuffSpec{Stat: StatDamage, Amount: 20, Duration: 300},
	},
	{
		ID: "rally", TargetMode: TargetArea, ManaCost: 35, Cooldown: 420,
		Effect: EffectBuff, Radius: 150, Buff: BuffSpec{Stat: StatSpeed, Amount: 0.6, Duration: 240},
	},
	{
		ID: "sunder", TargetMode: TargetSingleEnemy, ManaCost: 30, Cooldown: 300, Range: 320,
		Effect: EffectBuff, Buff: BuffSpec{Stat: StatArmor, Amount: -30, Duration: 300},
	},
	{
		ID: "battle_focus", TargetMode: TargetInstant, ManaCost: 25, Cooldown: 300,
		Effect: EffectBuff, Buff: BuffSpec{Stat: StatCooldown, Amount: -15, Duration: 240},
	},
	{
		ID: "deploy_drones", TargetMode: TargetPoint, ManaCost: 60, Cooldown: 900, Range: 400,
		Effect: EffectSummon, SummonArchetype: "drone", SummonCount: 4,
	},
	{
		ID: "warp_jump", TargetMode: TargetPoint, ManaCost: 70, Cooldown: 720, Range: 500,
		Effect: EffectDash, DashDuration: 45, ImpactRadius: 80, ImpactDamage: 60,
	},
	{
		ID: "plasma_lance", TargetMode: TargetSingleEnemy, ManaCost: 45, Cooldown: 240, Range: 450,
		Effect: EffectDamageProjectile, Amount: 150, ProjectileSpeed: 12,
	},
}
