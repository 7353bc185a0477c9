package models

import (
	"time"

	"github.com/google/uuid"
)

// Default configuration for a freshly created state. Deployments change
// these through the admin panel, not here.
const (
	DefaultPoolName      = "Super Bowl LIX"
	DefaultTeamA         = "NFC Champions"
	DefaultTeamB         = "AFC Champions"
	DefaultCostPerBox    = 10
	DefaultAdminPassword = "admin"
	DefaultCharityName   = "Local Food Bank"
)

// NewSquares builds the 100 fresh unassigned squares of a new board.
func NewSquares() []Square {
	squares := make([]Square, SquareCount)
	for i := range squares {
		squares[i] = Square{
			ID:  i,
			Row: i / GridSize,
			Col: i % GridSize,
		}
	}
	return squares
}

// DefaultPoolSettings returns the per-board settings for a new pool.
func DefaultPoolSettings() PoolSettings {
	return PoolSettings{
		TeamA:      DefaultTeamA,
		TeamB:      DefaultTeamB,
		CostPerBox: DefaultCostPerBox,
	}
}

// DefaultGlobalSettings returns the cross-board settings for a fresh state.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		AdminPassword: DefaultAdminPassword,
		CharityName:   DefaultCharityName,
	}
}

// NewPool creates a pool with 100 fresh squares and no participants.
// Only team names and cost per box carry over from the given settings;
// a new pool always starts unlocked with unrevealed axes.
func NewPool(name string, settings PoolSettings) Pool {
	settings.IsLocked = false
	settings.RowNumbers = []int{}
	settings.ColNumbers = []int{}
	return Pool{
		ID:        uuid.NewString(),
		Name:      name,
		Squares:   NewSquares(),
		Settings:  settings,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// NewDefaultState builds the fresh state used when nothing could be
// loaded: one default pool, default global settings.
func NewDefaultState() AppState {
	pool := NewPool(DefaultPoolName, DefaultPoolSettings())
	return AppState{
		Pools:          []Pool{pool},
		ActivePoolID:   pool.ID,
		GlobalSettings: DefaultGlobalSettings(),
	}
}
