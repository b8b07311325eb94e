package battle

import (
	"errors"
	"math"
	"testing"
)

func pt(x, y float64) *Vec2 { return &Vec2{x, y} }

func TestCast_InsufficientManaChangesNothing(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithAttacker("commander", 100, 100),
		WithDefender("infantry", 400, 400),
	)
	cmdr := ts.Unit(0)
	cmdr.Mana = 10
	pos := cmdr.Pos

	err := ts.Engine.castAbility(cmdr.ID, "orbital_strike", pt(400, 400))
	if !errors.Is(err, ErrInsufficientMana) {
		t.Fatalf("err = %v, want ErrInsufficientMana", err)
	}
	if cmdr.Mana != 10 || len(cmdr.abilityCooldowns) != 0 || cmdr.Pos != pos {
		t.Fatalf("rejected cast touched the caster: mana=%v cds=%v pos=%s", cmdr.Mana, cmdr.abilityCooldowns, formatPoint(cmdr.Pos))
	}
	if inf := ts.Unit(1); inf.HP != inf.MaxHP() {
		t.Fatalf("rejected cast dealt damage: hp %v", inf.HP)
	}
}

func TestCast_DeductsManaAndStartsCooldown(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithAttacker("commander", 100, 100),
		WithDefender("infantry", 400, 400),
		WithDefender("infantry", 900, 400),
	)
	cmdr, near, far := ts.Unit(0), ts.Unit(1), ts.Unit(2)

	if err := ts.Engine.castAbility(cmdr.ID, "orbital_strike", pt(400, 400)); err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if cmdr.Mana != 70 {
		t.Fatalf("mana = %v, want 70", cmdr.Mana)
	}
	if cmdr.abilityCooldowns["orbital_strike"] != 600 {
		t.Fatalf("cooldown = %d, want 600", cmdr.abilityCooldowns["orbital_strike"])
	}
	if near.Alive() {
		t.Fatalf("120 flat damage should wipe a 100hp squad, hp=%v", near.HP)
	}
	if far.HP != far.MaxHP() {
		t.Fatal("strike hit a unit outside its radius")
	}
	if !ts.SimLog.HasEntry("ability", "cast", "orbital_strike") {
		t.Fatalf("cast not logged:\n%s", ts.SimLog.Format())
	}

	err := ts.Engine.castAbility(cmdr.ID, "orbital_strike", pt(900, 400))
	if !errors.Is(err, ErrAbilityCooldown) {
		t.Fatalf("recast err = %v, want ErrAbilityCooldown", err)
	}
}

func TestCast_CooldownLastsExactlyItsTicks(t *testing.T) {
	ping := AbilityDef{ID: "ping", TargetMode: TargetSelf, Cooldown: 10, Effect: EffectBuff,
		Buff: BuffSpec{Stat: StatArmor, Amount: 1, Duration: 1}}
	hero := Archetype{ID: "tester", MaxHP: 100, IsHero: true, Abilities: []string{"ping"}, MaxMana: 10}
	ts := NewTestSim(
		WithAbility(ping),
		WithCustomArchetype(hero),
		WithAttacker("tester", 100, 100),
		WithDefender("tester", 1500, 800),
	)
	caster := ts.Unit(0)

	for i := 0; i < 25; i++ {
		if err := ts.Engine.CastAbility(caster.ID, "ping", nil); err != nil {
			t.Fatal(err)
		}
		ts.Engine.Tick()
	}
	var ticks []int
	for _, e := range ts.SimLog.Filter("ability", "cast") {
		ticks = append(ticks, e.Tick)
	}
	if len(ticks) != 3 || ticks[0] != 1 || ticks[1] != 11 || ticks[2] != 21 {
		t.Fatalf("casts at ticks %v, want [1 11 21]", ticks)
	}
	if got := ts.SimLog.CountCategory("command", "rejected"); got != 22 {
		t.Fatalf("rejected = %d, want 22", got)
	}
}

func TestCast_Rejections(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithUnlockedAbilities("rally"),
		WithAttacker("commander", 100, 100),
		WithAttacker("infantry", 150, 100),
		WithDefender("infantry", 800, 100),
	)
	cmdr, grunt := ts.Unit(0), ts.Unit(1)
	e := ts.Engine

	cases := []struct {
		name    string
		caster  UnitID
		ability string
		point   *Vec2
		want    error
	}{
		{"not a hero", grunt.ID, "rally", pt(100, 100), ErrNotHero},
		{"missing caster", 999, "rally", pt(100, 100), ErrInvalidTarget},
		{"not in hero list", cmdr.ID, "plasma_lance", pt(800, 100), ErrUnknownAbility},
		{"locked", cmdr.ID, "orbital_strike", pt(800, 100), ErrAbilityLocked},
		{"no point", cmdr.ID, "rally", nil, ErrInvalidTarget},
	}
	for _, c := range cases {
		err := e.castAbility(c.caster, c.ability, c.point)
		if !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}
	if cmdr.Mana != cmdr.Archetype().MaxMana {
		t.Fatalf("rejections spent mana: %v", cmdr.Mana)
	}
	if err := e.castAbility(cmdr.ID, "rally", pt(120, 100)); err != nil {
		t.Fatalf("unlocked rally rejected: %v", err)
	}
	if len(grunt.Buffs) != 1 || len(cmdr.Buffs) != 1 {
		t.Fatalf("rally should buff both allies: commander %d grunt %d", len(cmdr.Buffs), len(grunt.Buffs))
	}
}

func TestCast_SunderRangeAndTarget(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithAttacker("commander", 100, 100),
		WithDefender("tank", 300, 100),
		WithDefender("tank", 600, 100),
	)
	cmdr, near, far := ts.Unit(0), ts.Unit(1), ts.Unit(2)
	e := ts.Engine

	if err := e.castAbility(cmdr.ID, "sunder", pt(700, 700)); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("empty ground: err = %v, want ErrInvalidTarget", err)
	}
	if err := e.castAbility(cmdr.ID, "sunder", &far.Pos); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("far tank: err = %v, want ErrOutOfRange", err)
	}
	if err := e.castAbility(cmdr.ID, "sunder", pt(305, 95)); err != nil {
		t.Fatalf("near tank: %v", err)
	}
	if len(near.Buffs) != 1 || near.Buffs[0].Stat != StatArmor {
		t.Fatalf("tank buffs = %+v", near.Buffs)
	}
	ts.RunTicks(1)
	if got := near.Effective().Armor; got != 20 {
		t.Fatalf("sundered armor = %v, want 20", got)
	}
	if near.Archetype().Armor != 50 {
		t.Fatal("sunder modified the archetype")
	}
}

func TestCast_NaniteCloudHealsAllies(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithAttacker("commander", 100, 100),
		WithAttacker("infantry", 200, 100),
		WithDefender("infantry", 250, 100),
	)
	ally, enemy := ts.Unit(1), ts.Unit(2)
	ally.SubUnits[0].HP = 2
	ally.syncSquadHP()
	enemy.SubUnits[0].HP = 2
	enemy.syncSquadHP()

	if err := ts.Engine.castAbility(ts.Unit(0).ID, "nanite_cloud", pt(220, 100)); err != nil {
		t.Fatal(err)
	}
	if ally.HP != ally.MaxHP() {
		t.Fatalf("ally hp = %v, want full", ally.HP)
	}
	if enemy.HP == enemy.MaxHP() {
		t.Fatal("nanite cloud healed an enemy")
	}
}

func TestCast_DeployDronesSummons(t *testing.T) {
	ts := NewTestSim(
		WithAttacker("flagship", 200, 450),
		WithDefender("fighter", 1500, 800),
	)
	before := ts.Engine.reg.Len()
	if err := ts.Engine.castAbility(ts.Unit(0).ID, "deploy_drones", pt(400, 450)); err != nil {
		t.Fatal(err)
	}
	if got := ts.Engine.reg.Len() - before; got != 4 {
		t.Fatalf("summoned %d units, want 4", got)
	}
	for _, u := range ts.Engine.Units() {
		if u.ArchetypeID != "drone" {
			continue
		}
		if !u.Attacking || u.Side != TestAttackerSide {
			t.Fatalf("drone %s on the wrong side", u.Label())
		}
		if u.Pos.Dist(Vec2{400, 450}) > summonScatter+eps {
			t.Fatalf("drone %s spawned at %s, too far from the point", u.Label(), formatPoint(u.Pos))
		}
	}
	if got := ts.SimLog.CountCategory("ability", "summon"); got != 4 {
		t.Fatalf("summon logged %d times", got)
	}
}

func TestDash_TransitLerpAndSingleImpact(t *testing.T) {
	t.Log("--- Setup: flagship warps into two fighters, a third far away ---")
	ts := NewTestSim(
		WithAttacker("flagship", 100, 450),
		WithDefender("fighter", 500, 470),
		WithDefender("fighter", 540, 450),
		WithDefender("fighter", 1400, 800),
	)
	fs := ts.Unit(0)
	start, landing := fs.Pos, Vec2{500, 450}

	if err := ts.Engine.castAbility(fs.ID, "warp_jump", &landing); err != nil {
		t.Fatal(err)
	}
	if !fs.InTransit() {
		t.Fatal("flagship not in transit after warp_jump")
	}

	for k := 1; k < 45; k++ {
		ts.Engine.Tick()
		want := Lerp(start, landing, float64(k)/45)
		if fs.Pos.Dist(want) > 1e-9 {
			t.Fatalf("tick %d: pos %s, want %s", k, formatPoint(fs.Pos), formatPoint(want))
		}
		if fs.TargetID != 0 {
			t.Fatalf("tick %d: transiting unit acquired target %d", k, fs.TargetID)
		}
		for _, u := range ts.Engine.Units() {
			if u.TargetID == fs.ID {
				t.Fatalf("tick %d: %s targeted a transiting unit", k, u.Label())
			}
		}
		if err := ts.Engine.castAbility(fs.ID, "overdrive", nil); !errors.Is(err, ErrInTransit) {
			t.Fatalf("tick %d: cast during transit err = %v", k, err)
		}
	}
	if ts.SimLog.CountCategory("ability", "impact") != 0 {
		t.Fatal("impact resolved before landing")
	}

	ts.Engine.Tick()
	if fs.InTransit() || fs.Pos != landing {
		t.Fatalf("after 45 ticks: transit=%v pos=%s", fs.InTransit(), formatPoint(fs.Pos))
	}
	if got := ts.SimLog.CountCategory("ability", "impact"); got != 2 {
		dumpLog(t, ts.SimLog)
		t.Fatalf("impact applied %d times, want 2", got)
	}
	if ts.Unit(1).Alive() || ts.Unit(2).Alive() || !ts.Unit(3).Alive() {
		t.Fatal("impact should kill exactly the two fighters near the landing")
	}

	ts.RunTicks(5)
	if got := ts.SimLog.CountCategory("ability", "impact"); got != 2 {
		t.Fatalf("impact re-applied after landing: %d", got)
	}
}

func TestDash_ClampsAndRejectsBlockedLanding(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithObstacle(CircleObstacle(500, 100, 60)),
		WithAttacker("commander", 100, 100),
		WithDefender("turret", 1500, 850),
	)
	cmdr := ts.Unit(0)

	if err := ts.Engine.castAbility(cmdr.ID, "warp_jump", pt(520, 100)); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("blocked landing err = %v, want ErrInvalidTarget", err)
	}
	if cmdr.Mana != cmdr.Archetype().MaxMana || cmdr.InTransit() {
		t.Fatal("rejected dash had side effects")
	}

	if err := ts.Engine.castAbility(cmdr.ID, "warp_jump", pt(100, 850)); err != nil {
		t.Fatal(err)
	}
	if d := cmdr.Transit.Landing.Dist(cmdr.Pos); math.Abs(d-500) > 1e-9 {
		t.Fatalf("landing %.3f away, want clamped to 500", d)
	}
}

func TestCast_PlasmaLanceFlatProjectile(t *testing.T) {
	ts := NewTestSim(
		WithAttacker("flagship", 100, 450),
		WithDefender("corvette", 400, 450),
	)
	fs, corvette := ts.Unit(0), ts.Unit(1)
	if err := ts.Engine.castAbility(fs.ID, "plasma_lance", &corvette.Pos); err != nil {
		t.Fatal(err)
	}
	lance := ts.Engine.combat.Projectiles()[0]
	if !lance.Flat || lance.Damage() != 150 || lance.SourceID() != fs.ID {
		t.Fatalf("lance = %+v", lance)
	}
	hit := ts.RunUntil(func(ts *TestSim) bool {
		return ts.SimLog.CountCategory("projectile", "ability_hit") > 0
	}, 60)
	if hit < 0 {
		dumpLog(t, ts.SimLog)
		t.Fatal("lance never landed")
	}
	if corvette.Alive() {
		t.Fatalf("150 flat damage should destroy a 90hp/30 shield corvette, hp=%v", corvette.HP)
	}
}
