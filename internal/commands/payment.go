package commands

import (
	"time"

	"github.com/google/uuid"

	"github.com/frankie1ny/charitysuperbowl/internal/models"
)

// ApplyPayment distributes a lump amount across the participant's
// claimed squares in storage order, capping each square at the pool's
// cost per box. Whatever is left once every claimed square is full is
// silently absorbed as an extra donation: the transaction is still
// logged at the requested face value.
type ApplyPayment struct {
	PoolID        string
	ParticipantID string
	Amount        float64
	Method        string
	Notes         string
}

func (c ApplyPayment) Apply(state models.AppState) (models.AppState, error) {
	if c.Amount <= 0 {
		return state, ErrInvalidAmount
	}

	next := state.Clone()
	i := poolIndex(next, c.PoolID)
	if i < 0 {
		return state, ErrPoolNotFound
	}
	pool := &next.Pools[i]

	found := -1
	for j := range pool.Participants {
		if pool.Participants[j].ID == c.ParticipantID {
			found = j
			break
		}
	}
	if found < 0 {
		return state, ErrParticipantNotFound
	}

	remaining := c.Amount
	for j := range pool.Squares {
		if remaining <= 0 {
			break
		}
		square := &pool.Squares[j]
		if square.ParticipantID == nil || *square.ParticipantID != c.ParticipantID {
			continue
		}
		unpaid := pool.Settings.CostPerBox - square.PaidAmount
		if unpaid <= 0 {
			continue
		}
		payment := min(remaining, unpaid)
		square.PaidAmount += payment
		square.PaymentMethod = c.Method
		remaining -= payment
	}

	pool.Participants[found].PaymentHistory = append(pool.Participants[found].PaymentHistory, models.PaymentTransaction{
		ID:        uuid.NewString(),
		Amount:    c.Amount,
		Method:    c.Method,
		Timestamp: time.Now().UnixMilli(),
		Notes:     c.Notes,
	})
	return next, nil
}
