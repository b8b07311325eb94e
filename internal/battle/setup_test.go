package battle

import (
	"errors"
	"testing"
)

func TestSetup_SpawnsCompositionInSortedOrder(t *testing.T) {
	setup := Setup{
		Variant:   VariantGround,
		Attacker:  Force{SideID: "empire", Composition: Composition{"tank": 1, "infantry": 2, "mystery": 3}},
		Defenders: []Force{{SideID: "rebels", Composition: Composition{"turret": 1}}},
	}
	log := NewSimLog(false)
	e := New(setup, WithLog(log))

	units := e.Units()
	if len(units) != 4 {
		t.Fatalf("spawned %d units, want 4", len(units))
	}
	want := []string{"infantry", "infantry", "tank", "turret"}
	for i, u := range units {
		if u.ArchetypeID != want[i] {
			t.Fatalf("unit %d = %s, want %s", i, u.ArchetypeID, want[i])
		}
	}
	if !log.HasEntry("config", "unknown_archetype", "mystery") {
		t.Fatalf("unknown archetype not logged:\n%s", log.Format())
	}
	for _, u := range units {
		z := e.Domain().defaultZone(u.Attacking)
		if u.Pos.X < z.Min.X || u.Pos.X > z.Max.X {
			t.Fatalf("%s spawned at %s outside its band [%.0f,%.0f]", u.Label(), formatPoint(u.Pos), z.Min.X, z.Max.X)
		}
	}
	if units[0].Pos == units[1].Pos {
		t.Fatal("two units share a spawn slot in an empty zone")
	}
}

func TestSetup_SpawnZonesAndBlockedSlots(t *testing.T) {
	zone := &Zone{Min: Vec2{100, 100}, Max: Vec2{200, 200}}
	setup := Setup{
		Variant:  VariantGround,
		Attacker: Force{SideID: "empire", Composition: Composition{"ranger": 4}},
		MapConfig: &MapConfig{
			Obstacles:  []Obstacle{CircleObstacle(190, 150, 15)},
			SpawnZones: SpawnZones{Attacker: zone},
		},
	}
	e := New(setup)
	field := e.Domain().Field
	for _, u := range e.Units() {
		if u.Pos.X < 100 || u.Pos.X > 200 || u.Pos.Y < 100 || u.Pos.Y > 200 {
			t.Fatalf("%s at %s outside the zone", u.Label(), formatPoint(u.Pos))
		}
		if field.Blocked(u.Pos, u.Archetype().HitboxRadius) {
			t.Fatalf("%s spawned inside an obstacle at %s", u.Label(), formatPoint(u.Pos))
		}
	}
}

func TestSetup_GarrisonJoinsFirstDefender(t *testing.T) {
	setup := Setup{
		Variant:   VariantGround,
		Attacker:  Force{SideID: "empire", Composition: Composition{"tank": 1}},
		Defenders: []Force{{SideID: "colony"}},
		Garrison:  &Garrison{Composition: Composition{"turret": 2}},
	}
	e := New(setup)
	turrets := 0
	for _, u := range e.Units() {
		if u.ArchetypeID == "turret" {
			turrets++
			if u.Side != "colony" || u.Attacking {
				t.Fatalf("garrison turret on side %s attacking=%v", u.Side, u.Attacking)
			}
		}
	}
	if turrets != 2 {
		t.Fatalf("garrison spawned %d turrets, want 2", turrets)
	}

	setup.Defenders = nil
	e = New(setup)
	for _, u := range e.Units() {
		if u.ArchetypeID == "turret" && u.Side != GarrisonSide {
			t.Fatalf("garrison without defenders on side %s", u.Side)
		}
	}
}

func TestSetup_GarrisonIgnoredInSpace(t *testing.T) {
	setup := Setup{
		Attacker:  Force{SideID: "empire", Composition: Composition{"fighter": 1}},
		Defenders: []Force{{SideID: "rebels", Composition: Composition{"fighter": 1}}},
		Garrison:  &Garrison{Composition: Composition{"turret": 2}},
	}
	log := NewSimLog(false)
	e := New(setup, WithLog(log))
	if len(e.Units()) != 2 {
		t.Fatalf("space battle spawned a garrison: %d units", len(e.Units()))
	}
	if log.CountCategory("config", "garrison_ignored") != 1 {
		t.Fatal("ignored garrison not logged")
	}
}

func TestSetup_SpaceDropsObstacles(t *testing.T) {
	setup := Setup{
		Attacker:  Force{SideID: "empire", Composition: Composition{"fighter": 1}},
		MapConfig: &MapConfig{Obstacles: []Obstacle{CircleObstacle(500, 500, 50)}, TerrainID: "forest"},
	}
	e := New(setup)
	if !e.Domain().Field.Empty() || e.Domain().Terrain.ID != IdentityTerrain.ID {
		t.Fatalf("space domain kept ground features: %+v", e.Domain())
	}
}

func TestCatalog_CustomEntries(t *testing.T) {
	custom := []Archetype{
		{ID: "fighter", MaxHP: 99, Speed: 1},
		{ID: "broken", MaxHP: 0},
		{ID: "wizard", MaxHP: 50, IsHero: true, Abilities: []string{"rally", "fireball"}},
		{ID: "sloppy", MaxHP: 10, Accuracy: 3, AttackCooldown: 1},
	}
	abilities := []AbilityDef{
		{ID: "fireball", Effect: EffectSummon, SummonArchetype: "dragon"},
	}
	c, issues := NewCatalog(custom, abilities)

	if a, _ := c.Archetype("fighter"); a.MaxHP != 99 {
		t.Errorf("custom fighter not applied: %+v", a)
	}
	if _, ok := c.Archetype("broken"); ok {
		t.Error("invalid archetype accepted")
	}
	if _, ok := c.Ability("fireball"); ok {
		t.Error("summon of an unknown archetype accepted")
	}
	if w, _ := c.Archetype("wizard"); len(w.Abilities) != 1 || w.Abilities[0] != "rally" {
		t.Errorf("wizard abilities = %v, want [rally]", w.Abilities)
	}
	if s, _ := c.Archetype("sloppy"); s.Accuracy != 1 || s.AttackCooldown != minCooldownTicks || s.HitboxRadius != defaultHitboxRadius {
		t.Errorf("sloppy not normalised: %+v", s)
	}

	var invalid, unknownArch, unknownAb int
	for _, err := range issues {
		switch {
		case errors.Is(err, ErrInvalidArchetype):
			invalid++
		case errors.Is(err, ErrUnknownArchetype):
			unknownArch++
		case errors.Is(err, ErrUnknownAbility):
			unknownAb++
		}
	}
	if invalid != 1 || unknownArch != 1 || unknownAb != 1 {
		t.Fatalf("issues = %v", issues)
	}
}

func TestCatalog_CallerInputNotShared(t *testing.T) {
	traits := []Trait{TraitBiological}
	c, _ := NewCatalog([]Archetype{{ID: "x", MaxHP: 1, Traits: traits}}, nil)
	traits[0] = TraitRobotic
	if a, _ := c.Archetype("x"); a.Traits[0] != TraitBiological {
		t.Fatal("catalog shares storage with caller input")
	}
}

func TestProjection_ReflectsState(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithObstacle(RectObstacle(800, 450, 40, 40)),
		WithAttacker("infantry", 100, 100),
		WithAttacker("commander", 150, 100),
		WithDefender("turret", 1500, 800),
	)
	_ = ts.Engine.Select(ts.Unit(0).ID)
	ts.RunTicks(1)

	p := ts.Engine.Projection()
	if p.Tick != 1 || len(p.Units) != 3 || len(p.Obstacles) != 1 {
		t.Fatalf("projection tick=%d units=%d obstacles=%d", p.Tick, len(p.Units), len(p.Obstacles))
	}
	inf, ok := p.Unit(ts.Unit(0).ID)
	if !ok || !inf.Selected || len(inf.Members) != 5 {
		t.Fatalf("infantry view = %+v", inf)
	}
	cmdr, _ := p.Unit(ts.Unit(1).ID)
	if len(cmdr.Abilities) != len(ts.Unit(1).Archetype().Abilities) {
		t.Fatalf("commander abilities in view = %d", len(cmdr.Abilities))
	}

	// The published copy is detached from live state.
	ts.Unit(0).HP = 1
	ts.Unit(0).SubUnits[0].Offset = Vec2{999, 999}
	q := ts.Engine.Projection()
	if q.Units[0].HP == 1 || q.Units[0].Members[0].Dist(ts.Unit(0).SubUnitWorld(0)) < 1 {
		t.Fatal("projection shares memory with the live simulation")
	}
}

func TestProjectile_ObstacleBlocksShot(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithVerbose(true),
		WithObstacle(RectObstacle(300, 300, 20, 200)),
		WithAttacker("turret", 200, 300),
		WithDefender("turret", 400, 300),
	)
	ts.RunTicks(120)
	if ts.SimLog.CountCategory("projectile", "obstacle") == 0 {
		dumpLog(t, ts.SimLog)
		t.Fatal("no shot was stopped by the wall")
	}
	for _, u := range ts.Units {
		if u.HP != u.MaxHP() || u.Shield != u.Archetype().MaxShield {
			t.Fatalf("%s took damage through the wall: hp=%v shield=%v", u.Label(), u.HP, u.Shield)
		}
	}
}

func TestProjectile_ExpiresBeforeHitTest(t *testing.T) {
	ts := NewTestSim(
		WithCustomArchetype(dummyArchetype),
		WithAttacker("fighter", 100, 450),
		WithDefender("dummy", 115, 450),
	)
	f, dummy := ts.Unit(0), ts.Unit(1)
	payload := hitPayload{Damage: 50, SourceID: f.ID}

	spent := ts.Engine.spawnProjectile(f, Vec2{100, 450}, 0, defaultProjectileSpeed, 100, payload, true)
	spent.Life = 1
	ts.Engine.advanceProjectiles()
	if dummy.HP != dummy.MaxHP() {
		t.Fatalf("a shot on its last tick still hit: dummy hp=%v", dummy.HP)
	}
	if n := len(ts.Engine.combat.Projectiles()); n != 0 {
		t.Fatalf("%d projectiles left in flight, want 0", n)
	}

	live := ts.Engine.spawnProjectile(f, Vec2{100, 450}, 0, defaultProjectileSpeed, 100, payload, true)
	live.Life = 2
	ts.Engine.advanceProjectiles()
	if dummy.HP != dummy.MaxHP()-50 {
		t.Fatalf("dummy hp = %v, want %v", dummy.HP, dummy.MaxHP()-50)
	}
}

func TestSquad_InvariantHoldsThroughBattle(t *testing.T) {
	setup := Setup{
		Variant:   VariantGround,
		Attacker:  Force{SideID: "a", Composition: Composition{"infantry": 4, "marines": 2}},
		Defenders: []Force{{SideID: "d", Composition: Composition{"infantry": 4, "walker": 1}}},
		MapConfig: &MapConfig{Width: 700, Height: 500},
	}
	e := New(setup, WithSeed(11), WithTickLimit(6000))
	for e.Tick() {
		for _, u := range e.Units() {
			if u.IsSquad() {
				assertSquadInvariant(t, u)
			}
			if u.HP < 0 || u.HP > u.MaxHP()+1e-9 {
				t.Fatalf("tick %d: %s hp %v out of range", e.CurrentTick(), u.Label(), u.HP)
			}
		}
	}
	res, _ := e.Result()
	t.Logf("resolved %s at tick %d (%s)", res.Outcome, res.Tick, res.Reason)
}
