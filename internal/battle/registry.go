package battle

// Registry owns every unit in the battle and is the single source of truth
// for who is alive. Dead units stop resolving immediately; they are only
// dropped from the backing slice by compact at the end of a phase so no
// phase ever mutates the collection it is iterating.
type Registry struct {
	units  []*Unit
	byID   map[UnitID]*Unit
	nextID UnitID
}

// NewRegistry returns an empty registry. Ids start at 1.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[UnitID]*Unit), nextID: 1}
}

// spawn creates and registers a unit.
func (r *Registry) spawn(a Archetype, side SideID, attacking bool, pos Vec2, facing float64) *Unit {
	id := r.nextID
	r.nextID++
	u := newUnit(id, a, side, attacking, pos, facing)
	r.units = append(r.units, u)
	r.byID[id] = u
	return u
}

// Get resolves a weak reference. Dead or unknown ids yield false.
func (r *Registry) Get(id UnitID) (*Unit, bool) {
	if id == 0 {
		return nil, false
	}
	u, ok := r.byID[id]
	if !ok || u.dead {
		return nil, false
	}
	return u, true
}

// Live returns the living units in spawn order. The slice is a fresh copy.
func (r *Registry) Live() []*Unit {
	out := make([]*Unit, 0, len(r.units))
	for _, u := range r.units {
		if !u.dead {
			out = append(out, u)
		}
	}
	return out
}

// Len returns the number of living units.
func (r *Registry) Len() int {
	return len(r.byID)
}

// CountSide returns how many living units fight on the given side of the battle.
func (r *Registry) CountSide(attacking bool) int {
	n := 0
	for _, u := range r.units {
		if !u.dead && u.Attacking == attacking {
			n++
		}
	}
	return n
}

// kill marks u dead and removes it from lookup at once.
func (r *Registry) kill(u *Unit) {
	if u.dead {
		return
	}
	u.dead = true
	u.HP = 0
	u.Transit = nil
	delete(r.byID, u.ID)
}

// compact drops dead units from the backing slice.
func (r *Registry) compact() {
	kept := r.units[:0]
	for _, u := range r.units {
		if !u.dead {
			kept = append(kept, u)
		}
	}
	for i := len(kept); i < len(r.units); i++ {
		r.units[i] = nil
	}
	r.units = kept
}
