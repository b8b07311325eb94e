package battle

// Variant distinguishes the two battle modes the engine is configured for.
type Variant int

const (
	VariantSpace  Variant = iota // fleets in open space
	VariantGround                // armies on a planet surface
)

func (v Variant) String() string {
	switch v {
	case VariantSpace:
		return "space"
	case VariantGround:
		return "ground"
	default:
		return "unknown"
	}
}

// Terrain holds the multiplicative modifiers tied to a ground battle's
// terrain id. The identity terrain leaves every stat unchanged.
type Terrain struct {
	ID        string
	Speed     float64
	Range     float64
	Damage    float64
	Accuracy  float64
	ManaRegen float64
}

// IdentityTerrain is used by space battles and plain ground.
var IdentityTerrain = Terrain{ID: "none", Speed: 1, Range: 1, Damage: 1, Accuracy: 1, ManaRegen: 1}

var terrainTable = map[string]Terrain{
	"plains":   {ID: "plains", Speed: 1, Range: 1, Damage: 1, Accuracy: 1, ManaRegen: 1},
	"forest":   {ID: "forest", Speed: 0.8, Range: 0.85, Damage: 1, Accuracy: 0.9, ManaRegen: 1.1},
	"desert":   {ID: "desert", Speed: 0.9, Range: 1.1, Damage: 1, Accuracy: 0.95, ManaRegen: 0.9},
	"urban":    {ID: "urban", Speed: 0.85, Range: 0.8, Damage: 1.1, Accuracy: 0.85, ManaRegen: 1},
	"ice":      {ID: "ice", Speed: 0.75, Range: 1, Damage: 0.95, Accuracy: 0.9, ManaRegen: 1},
	"volcanic": {ID: "volcanic", Speed: 0.9, Range: 0.9, Damage: 1.15, Accuracy: 0.9, ManaRegen: 1.2},
}

// LookupTerrain returns the modifiers for id.
func LookupTerrain(id string) (Terrain, bool) {
	t, ok := terrainTable[id]
	return t, ok
}

const (
	defaultFieldWidth  = 1600.0
	defaultFieldHeight = 900.0

	// groundAggroRadius bounds idle auto-acquisition on planet surfaces.
	groundAggroRadius = 600.0
)

// Domain parameterises the single engine into its space or ground form.
type Domain struct {
	Variant Variant
	Terrain Terrain
	Field   *ObstacleField
	// AggroRadius <= 0 means auto-targeting is unconditional.
	AggroRadius float64
	AllowFacing bool
	Width       float64
	Height      float64
}

// SpaceDomain is open space: identity terrain, no obstacles, unlimited aggro.
func SpaceDomain() Domain {
	return Domain{
		Variant:     VariantSpace,
		Terrain:     IdentityTerrain,
		Field:       NewObstacleField(nil),
		AllowFacing: true,
		Width:       defaultFieldWidth,
		Height:      defaultFieldHeight,
	}
}

// GroundDomain is a planet surface with terrain modifiers and obstacles.
func GroundDomain(terrain Terrain, obstacles []Obstacle) Domain {
	return Domain{
		Variant:     VariantGround,
		Terrain:     terrain,
		Field:       NewObstacleField(obstacles),
		AggroRadius: groundAggroRadius,
		Width:       defaultFieldWidth,
		Height:      defaultFieldHeight,
	}
}

// inBounds clamps p into the playfield.
func (d Domain) inBounds(p Vec2) Vec2 {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if d.Width > 0 && p.X > d.Width {
		p.X = d.Width
	}
	if d.Height > 0 && p.Y > d.Height {
		p.Y = d.Height
	}
	return p
}
