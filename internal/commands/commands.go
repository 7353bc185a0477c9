// Package commands defines the closed set of intents that mutate the
// application state. Every command is a pure transition: Apply never
// touches the input state and returns either the next state or an
// error with the input state unchanged.
package commands

import (
	"errors"
	"strings"

	"github.com/frankie1ny/charitysuperbowl/internal/models"
)

var (
	// ErrPoolNotFound indicates the pool id does not resolve.
	ErrPoolNotFound = errors.New("pool not found")
	// ErrSquareNotFound indicates the square id is outside 0-99.
	ErrSquareNotFound = errors.New("square not found")
	// ErrSquareTaken indicates a claim hit an already assigned square.
	ErrSquareTaken = errors.New("square already claimed")
	// ErrSquareUnassigned indicates a relinquish hit an unassigned square.
	ErrSquareUnassigned = errors.New("square is not assigned")
	// ErrPoolLocked indicates the pool no longer accepts claims.
	ErrPoolLocked = errors.New("pool is locked")
	// ErrParticipantNotFound indicates the participant id does not resolve.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")
	// ErrInvalidCost indicates a negative cost per box.
	ErrInvalidCost = errors.New("cost per box cannot be negative")
	// ErrEmptyName indicates a missing required name field.
	ErrEmptyName = errors.New("name is required")
	// ErrEmptyEmail indicates a missing required email field.
	ErrEmptyEmail = errors.New("email is required")
	// ErrEmptyAlias indicates a missing required alias field.
	ErrEmptyAlias = errors.New("alias is required")
	// ErrLastPool forbids deleting the only remaining pool.
	ErrLastPool = errors.New("cannot delete the last remaining pool")
	// ErrInvalidAxis indicates axis numbers that are not a 0-9 permutation.
	ErrInvalidAxis = errors.New("axis numbers must be a permutation of 0-9")
	// ErrNoPools indicates an imported state without any pool.
	ErrNoPools = errors.New("state has no pools")
)

// Command is one intent against the application state.
type Command interface {
	Apply(state models.AppState) (models.AppState, error)
}

// NormalizeEmail produces the case-insensitive identity key used to
// match participants.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailIndex maps normalized emails to participant ids for one pool.
func emailIndex(pool models.Pool) map[string]string {
	idx := make(map[string]string, len(pool.Participants))
	for _, p := range pool.Participants {
		idx[NormalizeEmail(p.Email)] = p.ID
	}
	return idx
}

// poolIndex returns the position of a pool in the state, or -1.
func poolIndex(state models.AppState, id string) int {
	for i, p := range state.Pools {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// isPermutation reports whether nums holds each of 0-9 exactly once.
func isPermutation(nums []int) bool {
	if len(nums) != models.GridSize {
		return false
	}
	var seen [models.GridSize]bool
	for _, n := range nums {
		if n < 0 || n >= models.GridSize || seen[n] {
			return false
		}
		seen[n] = true
	}
	return true
}
