package commands

import (
	"github.com/google/uuid"

	"github.com/frankie1ny/charitysuperbowl/internal/models"
)

// Entry carries the contact fields submitted with a claim.
type Entry struct {
	Name  string
	Email string
	Phone string
	Alias string
}

// ClaimSquare assigns a square to the participant identified by the
// entry's email. A matching email (case-insensitive) reuses the
// existing participant and overwrites their profile with the newly
// submitted fields; otherwise a new participant is created.
type ClaimSquare struct {
	PoolID   string
	SquareID int
	Entry    Entry
}

func (c ClaimSquare) Apply(state models.AppState) (models.AppState, error) {
	switch {
	case c.Entry.Name == "":
		return state, ErrEmptyName
	case NormalizeEmail(c.Entry.Email) == "":
		return state, ErrEmptyEmail
	case c.Entry.Alias == "":
		return state, ErrEmptyAlias
	}

	next := state.Clone()
	i := poolIndex(next, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	pool := &next.Pools[i]
	if pool.Settings.IsLocked {
		return state, ErrPoolLocked
	}
	if c.SquareID < 0 || c.SquareID >= len(pool.Squares) {
		return state, ErrSquareNotFound
	}
	square := &pool.Squares[c.SquareID]
	if square.Assigned {
		return state, ErrSquareTaken
	}

	pid, ok := emailIndex(*pool)[NormalizeEmail(c.Entry.Email)]
	if ok {
		for j := range pool.Participants {
			if pool.Participants[j].ID == pid {
				// Last write wins on the profile; id and payment
				// history stay.
				pool.Participants[j].Name = c.Entry.Name
				pool.Participants[j].Email = c.Entry.Email
				pool.Participants[j].Phone = c.Entry.Phone
				pool.Participants[j].Alias = c.Entry.Alias
				break
			}
		}
	} else {
		pid = uuid.NewString()
		pool.Participants = append(pool.Participants, models.Participant{
			ID:    pid,
			Name:  c.Entry.Name,
			Email: c.Entry.Email,
			Phone: c.Entry.Phone,
			Alias: c.Entry.Alias,
		})
	}

	square.ParticipantID = &pid
	square.Alias = c.Entry.Alias
	square.Assigned = true
	return next, nil
}

// RelinquishSquare returns an assigned square to the unassigned state,
// discarding the paid amount attributed to that cell. The owning
// participant and their transaction history are untouched. Identity
// verification is a handler precondition; a lock on the pool does not
// block relinquishment.
type RelinquishSquare struct {
	PoolID   string
	SquareID int
}

func (c RelinquishSquare) Apply(state models.AppState) (models.AppState, error) {
	next := state.Clone()
	i := poolIndex(next, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	pool := &next.Pools[i]
	if c.SquareID < 0 || c.SquareID >= len(pool.Squares) {
		return state, ErrSquareNotFound
	}
	square := &pool.Squares[c.SquareID]
	if !square.Assigned {
		return state, ErrSquareUnassigned
	}

	square.ParticipantID = nil
	square.Alias = ""
	square.PaidAmount = 0
	square.Assigned = false
	return next, nil
}
