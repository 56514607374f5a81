package dex

import "errors"

// ============================================================================
// Standard Domain Errors
// ============================================================================

// These errors separate business outcomes (not found, bad reference) from
// storage failures, so the command layer can choose the right response text
// without inspecting error strings.
//
// Usage Pattern:
//
//	if err := trainers.Update(ctx, id, party); err != nil {
//	    if errors.Is(err, dex.ErrNotFound) {
//	        // answer "not updated"
//	    }
//	}
//
// Storage failures are wrapped with ErrStoreUnavailable or
// ErrPokedexUnavailable depending on which backing arena failed.
var (
	// ErrNotFound indicates no trainer record carries the requested key.
	ErrNotFound = errors.New("trainer not found")

	// ErrPokemonNotFound indicates no pokédex record carries the requested key.
	ErrPokemonNotFound = errors.New("pokemon not found")

	// ErrPartySize indicates a party outside the allowed 1..MaxPartySize range.
	ErrPartySize = errors.New("party size out of range")

	// ErrUnknownPokemon indicates a party references a key missing from the
	// pokédex. Validation stops at the first missing reference.
	ErrUnknownPokemon = errors.New("unknown pokemon reference")

	// ErrStoreUnavailable wraps trainer arena failures.
	ErrStoreUnavailable = errors.New("trainer store unavailable")

	// ErrPokedexUnavailable wraps pokédex arena failures.
	ErrPokedexUnavailable = errors.New("pokedex unavailable")
)
