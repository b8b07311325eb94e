package battle

import "errors"

// Rejection reasons. None of these ever escape the tick loop: command
// application returns them, the engine records them in the SimLog and the
// rejected action simply has no effect.
var (
	// ErrUnknownArchetype: a composition, summon or custom entry names a type
	// the catalog does not hold.
	ErrUnknownArchetype = errors.New("unknown archetype")
	// ErrUnknownAbility: an ability id does not resolve in the catalog.
	ErrUnknownAbility = errors.New("unknown ability")
	// ErrInvalidArchetype: a custom archetype definition is unusable.
	ErrInvalidArchetype = errors.New("invalid archetype definition")

	ErrInsufficientMana = errors.New("insufficient mana")
	ErrAbilityCooldown  = errors.New("ability on cooldown")
	ErrNotHero          = errors.New("unit is not a hero")
	ErrAbilityLocked    = errors.New("ability not unlocked for this hero")
	ErrInvalidTarget    = errors.New("invalid target")
	ErrOutOfRange       = errors.New("target out of ability range")
	ErrEmptySelection   = errors.New("empty selection")
	ErrInTransit        = errors.New("unit is in transit")
	ErrNotAllowed       = errors.New("command not allowed in this domain")
	ErrResolved         = errors.New("battle already resolved")
)
