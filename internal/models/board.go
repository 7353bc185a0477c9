package models

// GridSize is the number of rows (and columns) on a board.
const GridSize = 10

// SquareCount is the fixed number of squares on every board.
const SquareCount = GridSize * GridSize

// PaymentTransaction is an immutable record of one payment event.
// Transactions are append-only: once recorded they are never edited
// or removed, even if the squares they funded are later relinquished.
type PaymentTransaction struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
	Notes     string  `json:"notes,omitempty"`
}

// Participant is a person who has claimed at least one square.
// Email is the identity key: claims are matched case-insensitively
// against it, so one person never appears twice in a pool.
type Participant struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	Alias          string               `json:"alias"`
	PaymentHistory []PaymentTransaction `json:"paymentHistory,omitempty"`
}

// Square is one of the 100 cells of a board. Row and Col are derived
// from ID (row = id/10, col = id%10) and stored only for rendering.
type Square struct {
	ID            int     `json:"id"`
	Row           int     `json:"row"`
	Col           int     `json:"col"`
	ParticipantID *string `json:"participantId"`
	Alias         string  `json:"alias"`
	PaidAmount    float64 `json:"paidAmount"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	Assigned      bool    `json:"assigned"`
}

// FullyPaid reports whether the square has reached the given cost per box.
func (s Square) FullyPaid(costPerBox float64) bool {
	return s.PaidAmount >= costPerBox
}

// PoolSettings is the per-board configuration. RowNumbers and ColNumbers
// are either both empty (axes not revealed yet) or both hold a 0-9
// permutation.
type PoolSettings struct {
	TeamA      string  `json:"teamA"`
	TeamB      string  `json:"teamB"`
	CostPerBox float64 `json:"costPerBox"`
	RowNumbers []int   `json:"rowNumbers"`
	ColNumbers []int   `json:"colNumbers"`
	IsLocked   bool    `json:"isLocked"`
}

// GlobalSettings is shared by every pool in the app state. The admin
// password is a deliberately low-assurance gate: it is stored and
// compared in plaintext because the whole state is already readable
// by anyone holding a snapshot.
type GlobalSettings struct {
	AdminPassword string `json:"adminPassword,omitempty"`
	CharityName   string `json:"charityName"`
	ZelleAccount  string `json:"zelleAccount,omitempty"`
	PaypalAccount string `json:"paypalAccount,omitempty"`
	VenmoAccount  string `json:"venmoAccount,omitempty"`
}

// Pool is one independent 100-square contest with its own squares,
// participants and settings.
type Pool struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Squares      []Square      `json:"squares"`
	Participants []Participant `json:"participants"`
	Settings     PoolSettings  `json:"settings"`
	CreatedAt    int64         `json:"createdAt"` // unix milliseconds
}

// Participant returns the pool participant with the given id.
func (p Pool) Participant(id string) (Participant, bool) {
	for _, part := range p.Participants {
		if part.ID == id {
			return part, true
		}
	}
	return Participant{}, false
}

// AppState is the top-level snapshot: every pool, the active pool id
// and the cross-board settings.
type AppState struct {
	Pools          []Pool         `json:"pools"`
	ActivePoolID   string         `json:"activePoolId"`
	GlobalSettings GlobalSettings `json:"globalSettings"`
}

// Pool returns the pool with the given id.
func (s AppState) Pool(id string) (Pool, bool) {
	for _, p := range s.Pools {
		if p.ID == id {
			return p, true
		}
	}
	return Pool{}, false
}

// ActivePool returns the active pool, falling back to the first pool
// when the active id does not resolve.
func (s AppState) ActivePool() (Pool, bool) {
	if p, ok := s.Pool(s.ActivePoolID); ok {
		return p, true
	}
	if len(s.Pools) > 0 {
		return s.Pools[0], true
	}
	return Pool{}, false
}

// Clone returns a deep copy of the state. Commands clone before
// mutating so an applied state never shares slices with its ancestor.
func (s AppState) Clone() AppState {
	out := s
	out.Pools = make([]Pool, len(s.Pools))
	for i, p := range s.Pools {
		out.Pools[i] = p.Clone()
	}
	return out
}

// Clone returns a deep copy of the pool.
func (p Pool) Clone() Pool {
	out := p
	out.Squares = make([]Square, len(p.Squares))
	for i, sq := range p.Squares {
		out.Squares[i] = sq
		if sq.ParticipantID != nil {
			pid := *sq.ParticipantID
			out.Squares[i].ParticipantID = &pid
		}
	}
	out.Participants = make([]Participant, len(p.Participants))
	for i, part := range p.Participants {
		out.Participants[i] = part
		out.Participants[i].PaymentHistory = append([]PaymentTransaction(nil), part.PaymentHistory...)
	}
	// Unrevealed axes stay empty non-nil slices so snapshots always
	// encode them as [] rather than null.
	out.Settings.RowNumbers = append(make([]int, 0, len(p.Settings.RowNumbers)), p.Settings.RowNumbers...)
	out.Settings.ColNumbers = append(make([]int, 0, len(p.Settings.ColNumbers)), p.Settings.ColNumbers...)
	return out
}
