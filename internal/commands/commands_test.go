package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankie1ny/charitysuperbowl/internal/models"
)

func newTestState(t *testing.T) models.AppState {
	t.Helper()
	state := models.NewDefaultState()
	require.Len(t, state.Pools, 1)
	require.Equal(t, state.Pools[0].ID, state.ActivePoolID)
	return state
}

func claim(t *testing.T, state models.AppState, poolID string, squareID int, entry Entry) models.AppState {
	t.Helper()
	next, err := ClaimSquare{PoolID: poolID, SquareID: squareID, Entry: entry}.Apply(state)
	require.NoError(t, err)
	return next
}

// requireBoardInvariants checks the structural invariants that must
// hold after every command: 100 squares with ids 0-99 exactly once,
// assigned iff participantId is set, active pool resolvable.
func requireBoardInvariants(t *testing.T, state models.AppState) {
	t.Helper()
	_, ok := state.Pool(state.ActivePoolID)
	require.True(t, ok, "active pool id must reference an existing pool")
	for _, pool := range state.Pools {
		require.Len(t, pool.Squares, models.SquareCount)
		seen := make(map[int]bool, models.SquareCount)
		for _, sq := range pool.Squares {
			require.False(t, seen[sq.ID], "duplicate square id %d", sq.ID)
			seen[sq.ID] = true
			require.Equal(t, sq.ID/models.GridSize, sq.Row)
			require.Equal(t, sq.ID%models.GridSize, sq.Col)
			require.Equal(t, sq.ParticipantID != nil, sq.Assigned)
		}
	}
}

func TestClaimSquare(t *testing.T) {
	t.Run("new claim reserves square and creates participant", func(t *testing.T) {
		state := newTestState(t)
		next := claim(t, state, state.ActivePoolID, 42, Entry{Name: "A", Email: "a@x.com", Alias: "AAA"})

		pool := next.Pools[0]
		sq := pool.Squares[42]
		assert.True(t, sq.Assigned)
		assert.Equal(t, "AAA", sq.Alias)
		assert.Zero(t, sq.PaidAmount)
		require.Len(t, pool.Participants, 1)
		require.NotNil(t, sq.ParticipantID)
		assert.Equal(t, pool.Participants[0].ID, *sq.ParticipantID)
		requireBoardInvariants(t, next)

		// Input state untouched.
		assert.False(t, state.Pools[0].Squares[42].Assigned)
	})

	t.Run("matching email reuses participant and overwrites profile", func(t *testing.T) {
		state := newTestState(t)
		poolID := state.ActivePoolID
		state = claim(t, state, poolID, 0, Entry{Name: "Alice", Email: "Alice@X.com", Phone: "111", Alias: "ACE"})
		state = claim(t, state, poolID, 1, Entry{Name: "Alicia", Email: "alice@x.COM", Phone: "222", Alias: "ACE2"})

		pool := state.Pools[0]
		require.Len(t, pool.Participants, 1)
		p := pool.Participants[0]
		assert.Equal(t, "Alicia", p.Name)
		assert.Equal(t, "222", p.Phone)
		assert.Equal(t, "ACE2", p.Alias)
		assert.Equal(t, *pool.Squares[0].ParticipantID, *pool.Squares[1].ParticipantID)
		// The first square keeps the alias snapshotted at claim time.
		assert.Equal(t, "ACE", pool.Squares[0].Alias)
		assert.Equal(t, "ACE2", pool.Squares[1].Alias)
	})

	t.Run("locked pool rejects claims", func(t *testing.T) {
		state := newTestState(t)
		locked := true
		state, err := UpdatePoolSettings{PoolID: state.ActivePoolID, IsLocked: &locked}.Apply(state)
		require.NoError(t, err)

		_, err = ClaimSquare{PoolID: state.ActivePoolID, SquareID: 3, Entry: Entry{Name: "A", Email: "a@x.com", Alias: "A"}}.Apply(state)
		assert.ErrorIs(t, err, ErrPoolLocked)
	})

	t.Run("assigned square rejects claims", func(t *testing.T) {
		state := newTestState(t)
		state = claim(t, state, state.ActivePoolID, 5, Entry{Name: "A", Email: "a@x.com", Alias: "A"})
		_, err := ClaimSquare{PoolID: state.ActivePoolID, SquareID: 5, Entry: Entry{Name: "B", Email: "b@x.com", Alias: "B"}}.Apply(state)
		assert.ErrorIs(t, err, ErrSquareTaken)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		state := newTestState(t)
		_, err := ClaimSquare{PoolID: state.ActivePoolID, SquareID: 0, Entry: Entry{Email: "a@x.com", Alias: "A"}}.Apply(state)
		assert.ErrorIs(t, err, ErrEmptyName)
		_, err = ClaimSquare{PoolID: state.ActivePoolID, SquareID: 0, Entry: Entry{Name: "A", Email: "  ", Alias: "A"}}.Apply(state)
		assert.ErrorIs(t, err, ErrEmptyEmail)
		_, err = ClaimSquare{PoolID: state.ActivePoolID, SquareID: 0, Entry: Entry{Name: "A", Email: "a@x.com"}}.Apply(state)
		assert.ErrorIs(t, err, ErrEmptyAlias)
	})
}

func TestRelinquishSquare(t *testing.T) {
	t.Run("resets square and keeps transaction history", func(t *testing.T) {
		state := newTestState(t)
		poolID := state.ActivePoolID
		state = claim(t, state, poolID, 7, Entry{Name: "A", Email: "a@x.com", Alias: "A"})
		pid := *state.Pools[0].Squares[7].ParticipantID

		state, err := ApplyPayment{PoolID: poolID, ParticipantID: pid, Amount: 4, Method: "Cash"}.Apply(state)
		require.NoError(t, err)
		require.Equal(t, 4.0, state.Pools[0].Squares[7].PaidAmount)

		state, err = RelinquishSquare{PoolID: poolID, SquareID: 7}.Apply(state)
		require.NoError(t, err)

		sq := state.Pools[0].Squares[7]
		assert.Nil(t, sq.ParticipantID)
		assert.Empty(t, sq.Alias)
		assert.Zero(t, sq.PaidAmount)
		assert.False(t, sq.Assigned)

		p, ok := state.Pools[0].Participant(pid)
		require.True(t, ok)
		assert.Len(t, p.PaymentHistory, 1)
		requireBoardInvariants(t, state)
	})

	t.Run("allowed on a locked pool", func(t *testing.T) {
		state := newTestState(t)
		poolID := state.ActivePoolID
		state = claim(t, state, poolID, 2, Entry{Name: "A", Email: "a@x.com", Alias: "A"})
		locked := true
		state, err := UpdatePoolSettings{PoolID: poolID, IsLocked: &locked}.Apply(state)
		require.NoError(t, err)

		state, err = RelinquishSquare{PoolID: poolID, SquareID: 2}.Apply(state)
		require.NoError(t, err)
		assert.False(t, state.Pools[0].Squares[2].Assigned)
	})

	t.Run("unassigned square is an error", func(t *testing.T) {
		state := newTestState(t)
		_, err := RelinquishSquare{PoolID: state.ActivePoolID, SquareID: 0}.Apply(state)
		assert.ErrorIs(t, err, ErrSquareUnassigned)
	})
}

func TestApplyPayment(t *testing.T) {
	setup := func(t *testing.T) (models.AppState, string, string) {
		state := newTestState(t)
		poolID := state.ActivePoolID
		state = claim(t, state, poolID, 0, Entry{Name: "A", Email: "a@x.com", Alias: "A"})
		state = claim(t, state, poolID, 1, Entry{Name: "A", Email: "a@x.com", Alias: "A"})
		return state, poolID, *state.Pools[0].Squares[0].ParticipantID
	}

	t.Run("partial then completing payment fills in storage order", func(t *testing.T) {
		state, poolID, pid := setup(t)

		state, err := ApplyPayment{PoolID: poolID, ParticipantID: pid, Amount: 15, Method: "Cash"}.Apply(state)
		require.NoError(t, err)
		assert.Equal(t, 10.0, state.Pools[0].Squares[0].PaidAmount)
		assert.Equal(t, 5.0, state.Pools[0].Squares[1].PaidAmount)
		assert.Equal(t, "Cash", state.Pools[0].Squares[0].PaymentMethod)

		state, err = ApplyPayment{PoolID: poolID, ParticipantID: pid, Amount: 5, Method: "Cash"}.Apply(state)
		require.NoError(t, err)
		assert.Equal(t, 10.0, state.Pools[0].Squares[0].PaidAmount)
		assert.Equal(t, 10.0, state.Pools[0].Squares[1].PaidAmount)
		requireBoardInvariants(t, state)
	})

	t.Run("overpayment is absorbed but logged at face value", func(t *testing.T) {
		state, poolID, pid := setup(t)

		state, err := ApplyPayment{PoolID: poolID, ParticipantID: pid, Amount: 50, Method: "Venmo", Notes: "donor matching"}.Apply(state)
		require.NoError(t, err)

		pool := state.Pools[0]
		var distributed float64
		for _, sq := range pool.Squares {
			distributed += sq.PaidAmount
			assert.LessOrEqual(t, sq.PaidAmount, pool.Settings.CostPerBox)
		}
		// min(amount, total unpaid) = min(50, 20)
		assert.Equal(t, 20.0, distributed)

		p, ok := pool.Participant(pid)
		require.True(t, ok)
		require.Len(t, p.PaymentHistory, 1)
		tx := p.PaymentHistory[0]
		assert.Equal(t, 50.0, tx.Amount)
		assert.Equal(t, "Venmo", tx.Method)
		assert.Equal(t, "donor matching", tx.Notes)
		assert.Positive(t, tx.Timestamp)
	})

	t.Run("distributed sum matches the allocation property", func(t *testing.T) {
		state, poolID, pid := setup(t)
		for _, amount := range []float64{3, 7.5, 15, 40} {
			var before float64
			for _, sq := range state.Pools[0].Squares {
				before += sq.PaidAmount
			}
			var unpaid float64
			for _, sq := range state.Pools[0].Squares {
				if sq.ParticipantID != nil && *sq.ParticipantID == pid {
					unpaid += state.Pools[0].Settings.CostPerBox - sq.PaidAmount
				}
			}

			next, err := ApplyPayment{PoolID: poolID, ParticipantID: pid, Amount: amount, Method: "Cash"}.Apply(state)
			require.NoError(t, err)

			var after float64
			for _, sq := range next.Pools[0].Squares {
				after += sq.PaidAmount
			}
			assert.InDelta(t, min(amount, unpaid), after-before, 1e-9)
			state = next
		}
	})

	t.Run("non-positive amount is rejected without state change", func(t *testing.T) {
		state, poolID, pid := setup(t)
		for _, amount := range []float64{0, -5} {
			next, err := ApplyPayment{PoolID: poolID, ParticipantID: pid, Amount: amount, Method: "Cash"}.Apply(state)
			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.Equal(t, state, next)
		}
	})

	t.Run("unknown participant is rejected", func(t *testing.T) {
		state, poolID, _ := setup(t)
		_, err := ApplyPayment{PoolID: poolID, ParticipantID: "nope", Amount: 5, Method: "Cash"}.Apply(state)
		assert.ErrorIs(t, err, ErrParticipantNotFound)
	})
}

func TestPoolLifecycle(t *testing.T) {
	t.Run("create inherits only teams and cost", func(t *testing.T) {
		state := newTestState(t)
		teamA, cost, locked := "Hawks", 25.0, true
		state, err := UpdatePoolSettings{PoolID: state.ActivePoolID, TeamA: &teamA, CostPerBox: &cost, IsLocked: &locked}.Apply(state)
		require.NoError(t, err)
		state, err = GenerateAxisNumbers{PoolID: state.ActivePoolID}.Apply(state)
		require.NoError(t, err)

		state, err = CreatePool{Name: "Playoffs", Inherit: true}.Apply(state)
		require.NoError(t, err)

		require.Len(t, state.Pools, 2)
		created := state.Pools[1]
		assert.Equal(t, created.ID, state.ActivePoolID)
		assert.Equal(t, "Hawks", created.Settings.TeamA)
		assert.Equal(t, 25.0, created.Settings.CostPerBox)
		assert.False(t, created.Settings.IsLocked)
		assert.Empty(t, created.Settings.RowNumbers)
		assert.Empty(t, created.Settings.ColNumbers)
		assert.Empty(t, created.Participants)
		requireBoardInvariants(t, state)
	})

	t.Run("create without inherit uses defaults", func(t *testing.T) {
		state := newTestState(t)
		cost := 99.0
		state, err := UpdatePoolSettings{PoolID: state.ActivePoolID, CostPerBox: &cost}.Apply(state)
		require.NoError(t, err)

		state, err = CreatePool{Name: "Fresh"}.Apply(state)
		require.NoError(t, err)
		assert.Equal(t, float64(models.DefaultCostPerBox), state.Pools[1].Settings.CostPerBox)
	})

	t.Run("deleting the active pool promotes the first remaining", func(t *testing.T) {
		state := newTestState(t)
		first := state.ActivePoolID
		state, err := CreatePool{Name: "Second"}.Apply(state)
		require.NoError(t, err)
		active := state.ActivePoolID
		require.NotEqual(t, first, active)

		state, err = DeletePool{PoolID: active}.Apply(state)
		require.NoError(t, err)
		require.Len(t, state.Pools, 1)
		assert.Equal(t, first, state.ActivePoolID)
		requireBoardInvariants(t, state)
	})

	t.Run("deleting the last pool is forbidden", func(t *testing.T) {
		state := newTestState(t)
		_, err := DeletePool{PoolID: state.ActivePoolID}.Apply(state)
		assert.ErrorIs(t, err, ErrLastPool)
	})

	t.Run("switch requires an existing pool", func(t *testing.T) {
		state := newTestState(t)
		_, err := SwitchPool{PoolID: "missing"}.Apply(state)
		assert.ErrorIs(t, err, ErrPoolNotFound)
	})
}

func TestGenerateAxisNumbers(t *testing.T) {
	isPerm := func(nums []int) bool { return isPermutation(nums) }

	state := newTestState(t)
	poolID := state.ActivePoolID
	// Repeat: every call must yield two fresh valid permutations.
	for i := 0; i < 2; i++ {
		next, err := GenerateAxisNumbers{PoolID: poolID}.Apply(state)
		require.NoError(t, err)
		settings := next.Pools[0].Settings
		assert.True(t, isPerm(settings.RowNumbers), "rows %v", settings.RowNumbers)
		assert.True(t, isPerm(settings.ColNumbers), "cols %v", settings.ColNumbers)
		state = next
	}
}

func TestSetAxisNumbers(t *testing.T) {
	state := newTestState(t)
	rows := []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	cols := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	next, err := SetAxisNumbers{PoolID: state.ActivePoolID, RowNumbers: rows, ColNumbers: cols}.Apply(state)
	require.NoError(t, err)
	assert.Equal(t, rows, next.Pools[0].Settings.RowNumbers)
	assert.Equal(t, cols, next.Pools[0].Settings.ColNumbers)

	_, err = SetAxisNumbers{PoolID: state.ActivePoolID, RowNumbers: []int{1, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ColNumbers: cols}.Apply(state)
	assert.ErrorIs(t, err, ErrInvalidAxis)
	_, err = SetAxisNumbers{PoolID: state.ActivePoolID, RowNumbers: rows[:5], ColNumbers: cols}.Apply(state)
	assert.ErrorIs(t, err, ErrInvalidAxis)
}

func TestResetGrid(t *testing.T) {
	state := newTestState(t)
	poolID := state.ActivePoolID
	state = claim(t, state, poolID, 10, Entry{Name: "A", Email: "a@x.com", Alias: "A"})

	state, err := ResetGrid{PoolID: poolID}.Apply(state)
	require.NoError(t, err)
	assert.Empty(t, state.Pools[0].Participants)
	for _, sq := range state.Pools[0].Squares {
		assert.False(t, sq.Assigned)
	}
	requireBoardInvariants(t, state)
}

func TestToggleLock(t *testing.T) {
	state := newTestState(t)
	poolID := state.ActivePoolID

	state, err := ToggleLock{PoolID: poolID}.Apply(state)
	require.NoError(t, err)
	assert.True(t, state.Pools[0].Settings.IsLocked)

	state, err = ToggleLock{PoolID: poolID}.Apply(state)
	require.NoError(t, err)
	assert.False(t, state.Pools[0].Settings.IsLocked)

	_, err = ToggleLock{PoolID: "missing"}.Apply(state)
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestUpdateParticipant(t *testing.T) {
	state := newTestState(t)
	poolID := state.ActivePoolID
	state = claim(t, state, poolID, 0, Entry{Name: "A", Email: "a@x.com", Alias: "OLD"})
	pid := *state.Pools[0].Squares[0].ParticipantID

	name, alias := "Renamed", "NEW"
	state, err := UpdateParticipant{PoolID: poolID, ParticipantID: pid, Name: &name, Alias: &alias}.Apply(state)
	require.NoError(t, err)

	p, ok := state.Pools[0].Participant(pid)
	require.True(t, ok)
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, "NEW", p.Alias)
	// The grid alias is a claim-time snapshot; editing the roster does
	// not rewrite it.
	assert.Equal(t, "OLD", state.Pools[0].Squares[0].Alias)
}

func TestImportState(t *testing.T) {
	t.Run("replaces the state and repairs a dangling active id", func(t *testing.T) {
		state := newTestState(t)
		imported := models.NewDefaultState()
		imported.ActivePoolID = "dangling"

		next, err := ImportState{State: imported}.Apply(state)
		require.NoError(t, err)
		assert.Equal(t, imported.Pools[0].ID, next.ActivePoolID)
		requireBoardInvariants(t, next)
	})

	t.Run("empty import is rejected", func(t *testing.T) {
		state := newTestState(t)
		_, err := ImportState{}.Apply(state)
		assert.ErrorIs(t, err, ErrNoPools)
	})
}
