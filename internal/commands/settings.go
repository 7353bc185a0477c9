package commands

import (
	"github.com/frankie1ny/charitysuperbowl/internal/models"
)

// UpdatePoolSettings applies a partial update to a board's settings.
// Nil fields are left as they are.
type UpdatePoolSettings struct {
	PoolID     string
	TeamA      *string
	TeamB      *string
	CostPerBox *float64
	IsLocked   *bool
}

func (c UpdatePoolSettings) Apply(state models.AppState) (models.AppState, error) {
	if c.CostPerBox != nil && *c.CostPerBox < 0 {
		return state, ErrInvalidCost
	}
	next := state.Clone()
	i := poolIndex(next, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	settings := &next.Pools[i].Settings
	if c.TeamA != nil {
		settings.TeamA = *c.TeamA
	}
	if c.TeamB != nil {
		settings.TeamB = *c.TeamB
	}
	if c.CostPerBox != nil {
		settings.CostPerBox = *c.CostPerBox
	}
	if c.IsLocked != nil {
		settings.IsLocked = *c.IsLocked
	}
	return next, nil
}

// ToggleLock flips the claim lock on a board. The flip happens inside
// the transition so two racing toggles land on opposite states instead
// of both writing the same one.
type ToggleLock struct {
	PoolID string
}

func (c ToggleLock) Apply(state models.AppState) (models.AppState, error) {
	next := state.Clone()
	i := poolIndex(next, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	next.Pools[i].Settings.IsLocked = !next.Pools[i].Settings.IsLocked
	return next, nil
}

// UpdateGlobalSettings applies a partial update to the cross-board
// settings. Nil fields are left as they are.
type UpdateGlobalSettings struct {
	AdminPassword *string
	CharityName   *string
	ZelleAccount  *string
	PaypalAccount *string
	VenmoAccount  *string
}

func (c UpdateGlobalSettings) Apply(state models.AppState) (models.AppState, error) {
	next := state.Clone()
	settings := &next.GlobalSettings
	if c.AdminPassword != nil {
		settings.AdminPassword = *c.AdminPassword
	}
	if c.CharityName != nil {
		settings.CharityName = *c.CharityName
	}
	if c.ZelleAccount != nil {
		settings.ZelleAccount = *c.ZelleAccount
	}
	if c.PaypalAccount != nil {
		settings.PaypalAccount = *c.PaypalAccount
	}
	if c.VenmoAccount != nil {
		settings.VenmoAccount = *c.VenmoAccount
	}
	return next, nil
}

// UpdateParticipant edits a participant's profile fields in place.
// Square aliases are snapshots taken at claim time and are deliberately
// not rewritten here.
type UpdateParticipant struct {
	PoolID        string
	ParticipantID string
	Name          *string
	Email         *string
	Phone         *string
	Alias         *string
}

func (c UpdateParticipant) Apply(state models.AppState) (models.AppState, error) {
	next := state.Clone()
	i := poolIndex(next, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	pool := &next.Pools[i]
	for j := range pool.Participants {
		if pool.Participants[j].ID != c.ParticipantID {
			continue
		}
		p := &pool.Participants[j]
		if c.Name != nil {
			p.Name = *c.Name
		}
		if c.Email != nil {
			p.Email = *c.Email
		}
		if c.Phone != nil {
			p.Phone = *c.Phone
		}
		if c.Alias != nil {
			p.Alias = *c.Alias
		}
		return next, nil
	}
	return state, ErrParticipantNotFound
}

// ImportState replaces the whole state with an operator-supplied
// backup. A dangling active pool id is repaired to the first pool.
type ImportState struct {
	State models.AppState
}

func (c ImportState) Apply(state models.AppState) (models.AppState, error) {
	if len(c.State.Pools) == 0 {
		return state, ErrNoPools
	}
	next := c.State.Clone()
	if _, ok := next.Pool(next.ActivePoolID); !ok {
		next.ActivePoolID = next.Pools[0].ID
	}
	return next, nil
}
