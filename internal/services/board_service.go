package services

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/logger"

	"github.com/frankie1ny/charitysuperbowl/internal/commands"
	"github.com/frankie1ny/charitysuperbowl/internal/models"
	"github.com/frankie1ny/charitysuperbowl/internal/storage"
)

// BoardService holds the single in-memory application state and is the
// only writer to it. Mutations go through Dispatch, which applies a
// command, swaps the state wholesale and then persists the new snapshot
// as an observer side effect. Reads hand out deep copies so callers can
// never alias the live state.
type BoardService struct {
	mu    sync.RWMutex
	state models.AppState
	store storage.Store
}

// NewBoardService loads the persisted snapshot, falling back to a fresh
// default state when it is missing or malformed. Either way the service
// is usable; load failures are logged, never fatal.
func NewBoardService(store storage.Store) *BoardService {
	s := &BoardService{store: store}
	if store != nil {
		state, err := store.Load()
		if err == nil {
			s.state = state
			return s
		}
		logger.Infof("No usable snapshot, starting fresh: %v", err)
	}
	s.state = models.NewDefaultState()
	s.persist()
	return s
}

// Dispatch applies one command. On success the new state replaces the
// old one and is persisted; on error the state is untouched.
func (s *BoardService) Dispatch(cmd commands.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := cmd.Apply(s.state)
	if err != nil {
		return err
	}
	s.state = next
	s.persist()
	return nil
}

// persist writes the current snapshot, best effort. Callers hold the
// lock.
func (s *BoardService) persist() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.state); err != nil {
		logger.Errorf("Failed to persist snapshot: %v", err)
	}
}

// State returns a deep copy of the full application state.
func (s *BoardService) State() models.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ActivePool returns a deep copy of the active pool.
func (s *BoardService) ActivePool() models.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, _ := s.state.ActivePool()
	return pool.Clone()
}

// Pool returns a deep copy of the pool with the given id.
func (s *BoardService) Pool(id string) (models.Pool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.state.Pool(id)
	if !ok {
		return models.Pool{}, false
	}
	return pool.Clone(), true
}

// GlobalSettings returns the cross-board settings.
func (s *BoardService) GlobalSettings() models.GlobalSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GlobalSettings
}

// CheckAdminPassword compares a submitted password against the stored
// one. Plain comparison: the gate is low-assurance by design, since the
// password travels inside every shared snapshot anyway.
func (s *BoardService) CheckAdminPassword(password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.state.GlobalSettings.AdminPassword
	if stored == "" {
		stored = models.DefaultAdminPassword
	}
	return password == stored
}

// VerifySquareOwner checks that the submitted email matches the
// participant owning the square, case-insensitively. This is the
// identity precondition for relinquishing or paying on someone's box.
func (s *BoardService) VerifySquareOwner(poolID string, squareID int, email string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.state.Pool(poolID)
	if !ok || squareID < 0 || squareID >= len(pool.Squares) {
		return "", false
	}
	sq := pool.Squares[squareID]
	if sq.ParticipantID == nil {
		return "", false
	}
	owner, ok := pool.Participant(*sq.ParticipantID)
	if !ok {
		return "", false
	}
	if commands.NormalizeEmail(owner.Email) != commands.NormalizeEmail(email) {
		return "", false
	}
	return owner.ID, true
}

// RosterEntry is one participant's financial summary for the roster
// view.
type RosterEntry struct {
	models.Participant
	BoxCount       int
	TotalPaid      float64
	TotalOwed      float64
	Balance        float64
	SquareIDs      []int
	PaymentMethods []string
}

// FullyPaid reports whether the participant owes nothing on their boxes.
func (e RosterEntry) FullyPaid() bool {
	return e.BoxCount > 0 && e.Balance == 0
}

// Roster aggregates per-participant box counts, totals and methods for
// one pool, sorted by box count descending.
func (s *BoardService) Roster(poolID string) []RosterEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.state.Pool(poolID)
	if !ok {
		return nil
	}

	cost := pool.Settings.CostPerBox
	entries := make([]RosterEntry, 0, len(pool.Participants))
	for _, p := range pool.Participants {
		entry := RosterEntry{Participant: p}
		seen := map[string]bool{}
		for _, sq := range pool.Squares {
			if sq.ParticipantID == nil || *sq.ParticipantID != p.ID {
				continue
			}
			entry.BoxCount++
			entry.TotalPaid += sq.PaidAmount
			entry.SquareIDs = append(entry.SquareIDs, sq.ID)
			if sq.PaymentMethod != "" && !seen[sq.PaymentMethod] {
				seen[sq.PaymentMethod] = true
				entry.PaymentMethods = append(entry.PaymentMethods, sq.PaymentMethod)
			}
		}
		entry.TotalOwed = float64(entry.BoxCount) * cost
		entry.Balance = max(0, entry.TotalOwed-entry.TotalPaid)
		if len(entry.PaymentMethods) == 0 {
			entry.PaymentMethods = []string{"None"}
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].BoxCount > entries[j].BoxCount
	})
	return entries
}

// FilterRoster keeps entries whose name, alias or email contains the
// search term, case-insensitively. An empty term keeps everything.
func FilterRoster(entries []RosterEntry, term string) []RosterEntry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return entries
	}
	var out []RosterEntry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), term) ||
			strings.Contains(strings.ToLower(e.Alias), term) ||
			strings.Contains(strings.ToLower(e.Email), term) {
			out = append(out, e)
		}
	}
	return out
}

// FinanceTotals is the collection dashboard for one pool.
type FinanceTotals struct {
	TotalDue         float64
	TotalCollected   float64
	Outstanding      float64
	PercentCollected float64
}

// Totals sums the pledged and collected amounts across one pool.
func (s *BoardService) Totals(poolID string) FinanceTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.state.Pool(poolID)
	if !ok {
		return FinanceTotals{}
	}

	var totals FinanceTotals
	for _, sq := range pool.Squares {
		if sq.Assigned {
			totals.TotalDue += pool.Settings.CostPerBox
		}
		totals.TotalCollected += sq.PaidAmount
	}
	totals.Outstanding = max(0, totals.TotalDue-totals.TotalCollected)
	if totals.TotalDue > 0 {
		totals.PercentCollected = totals.TotalCollected / totals.TotalDue * 100
	}
	return totals
}
