package battle

import (
	"fmt"
	"math"
	"sort"
)

// Composition maps archetype id to unit count.
type Composition map[string]int

// Force is one side's order of battle.
type Force struct {
	SideID      SideID
	Composition Composition
}

// Garrison is the planetary defence of a ground battle. It fights with the
// first defender force.
type Garrison struct {
	Composition Composition
}

// Zone is an axis-aligned spawn rectangle.
type Zone struct {
	Min, Max Vec2
}

// SpawnZones overrides the default spawn bands per side.
type SpawnZones struct {
	Attacker *Zone
	Defender *Zone
}

// MapConfig describes a ground battlefield.
type MapConfig struct {
	TerrainID  string
	Obstacles  []Obstacle
	SpawnZones SpawnZones
	Width      float64
	Height     float64
}

// HeroUnlocks restricts which hero abilities may be cast. A nil HeroUnlocks
// leaves every ability available.
type HeroUnlocks struct {
	UnlockedAbilityIDs []string
}

// Setup is the initialization input of a battle.
type Setup struct {
	Variant          Variant
	Attacker         Force
	Defenders        []Force
	Garrison         *Garrison
	CustomArchetypes []Archetype
	MapConfig        *MapConfig
	HeroUnlocks      *HeroUnlocks
	AbilityCatalog   []AbilityDef
}

const (
	spawnBand    = 0.2  // fraction of the field width each side deploys in
	spawnMargin  = 30.0 // keep-out from the field edge
	spawnSpacing = 40.0
	// Ground armies deploy in narrower bands either side of a no-man's-land
	// at the centre line, close enough for the aggro radius to reach across.
	groundSpawnBand = 0.12
	groundFrontGap  = 240.0
	// GarrisonSide is the side id garrison units take when there is no
	// defender force to join.
	GarrisonSide SideID = "garrison"
)

// buildDomain turns the setup into a domain. Unknown terrain falls back to
// plains and is reported.
func buildDomain(s Setup) (Domain, []error) {
	var issues []error
	var d Domain
	switch s.Variant {
	case VariantGround:
		terrain, _ := LookupTerrain("plains")
		var obstacles []Obstacle
		if mc := s.MapConfig; mc != nil {
			obstacles = mc.Obstacles
			if mc.TerrainID != "" {
				t, ok := LookupTerrain(mc.TerrainID)
				if !ok {
					issues = append(issues, fmt.Errorf("unknown terrain %q, using plains", mc.TerrainID))
				} else {
					terrain = t
				}
			}
		}
		d = GroundDomain(terrain, obstacles)
	default:
		d = SpaceDomain()
	}
	if mc := s.MapConfig; mc != nil {
		if mc.Width > 0 {
			d.Width = mc.Width
		}
		if mc.Height > 0 {
			d.Height = mc.Height
		}
	}
	return d, issues
}

// spawnUnit registers a unit with this battle's terrain overlay. Squad
// members start with staggered cooldowns.
func (e *Engine) spawnUnit(a Archetype, side SideID, attacking bool, pos Vec2, facing float64) *Unit {
	u := e.reg.spawn(a, side, attacking, pos, facing)
	u.eff = effectiveStats(a, e.domain.Terrain, nil)
	for i := range u.SubUnits {
		u.SubUnits[i].Cooldown = e.rng.Float64() * a.AttackCooldown * cooldownJitter
	}
	return u
}

// deployment is one unit waiting for a spawn slot.
type deployment struct {
	arch Archetype
	side SideID
}

// spawnForces places every force on the field.
func (e *Engine) spawnForces(s Setup) {
	attackers := e.expand(s.Attacker.Composition, s.Attacker.SideID)
	var defenders []deployment
	for _, f := range s.Defenders {
		defenders = append(defenders, e.expand(f.Composition, f.SideID)...)
	}
	if s.Garrison != nil {
		if e.domain.Variant != VariantGround {
			e.log.Add(0, "--", "--", "config", "garrison_ignored", "garrison only defends planets", 0)
		} else {
			side := GarrisonSide
			if len(s.Defenders) > 0 {
				side = s.Defenders[0].SideID
			}
			defenders = append(defenders, e.expand(s.Garrison.Composition, side)...)
		}
	}

	var zones SpawnZones
	if s.MapConfig != nil {
		zones = s.MapConfig.SpawnZones
	}
	e.deploy(attackers, true, e.zoneOrDefault(zones.Attacker, true))
	e.deploy(defenders, false, e.zoneOrDefault(zones.Defender, false))
}

// expand unrolls a composition in sorted key order, skipping unknown types.
func (e *Engine) expand(c Composition, side SideID) []deployment {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []deployment
	for _, k := range keys {
		a, ok := e.catalog.Archetype(k)
		if !ok {
			e.log.Add(0, "--", string(side), "config", "unknown_archetype", k, float64(c[k]))
			continue
		}
		for i := 0; i < c[k]; i++ {
			out = append(out, deployment{arch: a, side: side})
		}
	}
	return out
}

func (e *Engine) zoneOrDefault(z *Zone, attacking bool) Zone {
	if z != nil {
		return *z
	}
	return e.domain.defaultZone(attacking)
}

// defaultZone is where a side deploys without a map override. Space fleets
// start at opposite edges; ground armies face each other across the centre.
func (d Domain) defaultZone(attacking bool) Zone {
	w, h := d.Width, d.Height
	if d.Variant == VariantGround {
		band := w * groundSpawnBand
		half := math.Min(groundFrontGap, w-2*band) / 2
		mid := w / 2
		if attacking {
			return Zone{Min: Vec2{mid - half - band, 0}, Max: Vec2{mid - half, h}}
		}
		return Zone{Min: Vec2{mid + half, 0}, Max: Vec2{mid + half + band, h}}
	}
	if attacking {
		return Zone{Min: Vec2{0, 0}, Max: Vec2{w * spawnBand, h}}
	}
	return Zone{Min: Vec2{w * (1 - spawnBand), 0}, Max: Vec2{w, h}}
}

// deploy lays units out on a grid inside zone, front column first and each
// column from the centre outward. Blocked slots are skipped; when the zone
// runs out of free slots placement wraps round and units share slots.
func (e *Engine) deploy(units []deployment, attacking bool, zone Zone) {
	if len(units) == 0 {
		return
	}
	slots := e.zoneSlots(zone, attacking)
	facing := 0.0
	if !attacking {
		facing = math.Pi
	}
	next := 0
	for _, d := range units {
		placed := false
		for tries := 0; tries < len(slots); tries++ {
			p := slots[next%len(slots)]
			next++
			if e.domain.Field.Blocked(p, d.arch.HitboxRadius) {
				continue
			}
			e.spawnUnit(d.arch, d.side, attacking, p, facing)
			placed = true
			break
		}
		if !placed {
			e.log.Add(0, "--", string(d.side), "config", "no_spawn_slot", d.arch.ID, 0)
		}
	}
}

func (e *Engine) zoneSlots(z Zone, attacking bool) []Vec2 {
	minX := math.Max(z.Min.X, spawnMargin)
	maxX := math.Min(z.Max.X, e.domain.Width-spawnMargin)
	minY := math.Max(z.Min.Y, spawnMargin)
	maxY := math.Min(z.Max.Y, e.domain.Height-spawnMargin)
	if maxX < minX {
		minX, maxX = (z.Min.X+z.Max.X)/2, (z.Min.X+z.Max.X)/2
	}
	if maxY < minY {
		minY, maxY = (z.Min.Y+z.Max.Y)/2, (z.Min.Y+z.Max.Y)/2
	}
	cols := int((maxX-minX)/spawnSpacing) + 1
	rows := int((maxY-minY)/spawnSpacing) + 1
	midY := (minY + maxY) / 2

	// Rows ordered centre-out: 0, +1, -1, +2, -2 ...
	rowOrder := make([]float64, 0, rows)
	for i := 0; len(rowOrder) < rows; i++ {
		off := float64((i+1)/2) * spawnSpacing
		if i%2 == 1 {
			off = -off
		}
		y := midY + off
		if y < minY-1e-9 || y > maxY+1e-9 {
			if i > 2*rows {
				break
			}
			continue
		}
		rowOrder = append(rowOrder, y)
	}

	slots := make([]Vec2, 0, cols*len(rowOrder))
	for c := 0; c < cols; c++ {
		x := maxX - float64(c)*spawnSpacing
		if !attacking {
			x = minX + float64(c)*spawnSpacing
		}
		for _, y := range rowOrder {
			slots = append(slots, Vec2{x, y})
		}
	}
	return slots
}
