package commands

import (
	"math/rand"

	"github.com/frankie1ny/charitysuperbowl/internal/models"
)

// CreatePool adds a fresh board and makes it active. With Inherit set,
// team names and cost per box carry over from the active pool; the new
// board still starts unlocked, with unrevealed axes and no participants.
type CreatePool struct {
	Name    string
	Inherit bool
}

func (c CreatePool) Apply(state models.AppState) (models.AppState, error) {
	if c.Name == "" {
		return state, ErrEmptyName
	}

	settings := models.DefaultPoolSettings()
	if c.Inherit {
		if active, ok := state.ActivePool(); ok {
			settings.TeamA = active.Settings.TeamA
			settings.TeamB = active.Settings.TeamB
			settings.CostPerBox = active.Settings.CostPerBox
		}
	}

	next := state.Clone()
	pool := models.NewPool(c.Name, settings)
	next.Pools = append(next.Pools, pool)
	next.ActivePoolID = pool.ID
	return next, nil
}

// DeletePool removes a board. Deleting the active board promotes the
// first remaining board; deleting the only board is forbidden so the
// app never ends up without one.
type DeletePool struct {
	PoolID string
}

func (c DeletePool) Apply(state models.AppState) (models.AppState, error) {
	i := poolIndex(state, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	if len(state.Pools) == 1 {
		return state, ErrLastPool
	}

	next := state.Clone()
	next.Pools = append(next.Pools[:i], next.Pools[i+1:]...)
	if next.ActivePoolID == c.PoolID {
		next.ActivePoolID = next.Pools[0].ID
	}
	return next, nil
}

// SwitchPool changes the active board.
type SwitchPool struct {
	PoolID string
}

func (c SwitchPool) Apply(state models.AppState) (models.AppState, error) {
	if poolIndex(state, c.PoolID) < 0 {
		return state, ErrPoolNotFound
	}
	next := state.Clone()
	next.ActivePoolID = c.PoolID
	return next, nil
}

// RenamePool changes a board's display name.
type RenamePool struct {
	PoolID string
	Name   string
}

func (c RenamePool) Apply(state models.AppState) (models.AppState, error) {
	if c.Name == "" {
		return state, ErrEmptyName
	}
	next := state.Clone()
	i := poolIndex(next, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	next.Pools[i].Name = c.Name
	return next, nil
}

// GenerateAxisNumbers overwrites both score axes with independent
// uniform 0-9 permutations. Repeatable at will; prior reveals are not
// kept anywhere.
type GenerateAxisNumbers struct {
	PoolID string
}

func (c GenerateAxisNumbers) Apply(state models.AppState) (models.AppState, error) {
	next := state.Clone()
	i := poolIndex(next, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	next.Pools[i].Settings.RowNumbers = rand.Perm(models.GridSize)
	next.Pools[i].Settings.ColNumbers = rand.Perm(models.GridSize)
	return next, nil
}

// SetAxisNumbers overwrites both score axes with operator-chosen
// permutations. Axes are set as a whole so they are never left half
// revealed.
type SetAxisNumbers struct {
	PoolID     string
	RowNumbers []int
	ColNumbers []int
}

func (c SetAxisNumbers) Apply(state models.AppState) (models.AppState, error) {
	if !isPermutation(c.RowNumbers) || !isPermutation(c.ColNumbers) {
		return state, ErrInvalidAxis
	}
	next := state.Clone()
	i := poolIndex(next, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	next.Pools[i].Settings.RowNumbers = append([]int(nil), c.RowNumbers...)
	next.Pools[i].Settings.ColNumbers = append([]int(nil), c.ColNumbers...)
	return next, nil
}

// ResetGrid throws away every claim and participant on a board,
// restoring 100 fresh squares. Settings stay as they are.
type ResetGrid struct {
	PoolID string
}

func (c ResetGrid) Apply(state models.AppState) (models.AppState, error) {
	next := state.Clone()
	i := poolIndex(next, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	next.Pools[i].Squares = models.NewSquares()
	next.Pools[i].Participants = nil
	return next, nil
}
