package services

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/frankie1ny/charitysuperbowl/internal/commands"
	"github.com/frankie1ny/charitysuperbowl/internal/storage"
)

func TestBoardService_Dispatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := storage.NewFileStore(fs, "squares.json")
	service := NewBoardService(store)
	poolID := service.ActivePool().ID

	t.Run("successful command mutates and persists", func(t *testing.T) {
		err := service.Dispatch(commands.ClaimSquare{
			PoolID:   poolID,
			SquareID: 42,
			Entry:    commands.Entry{Name: "Alice", Email: "alice@x.com", Alias: "ACE"},
		})
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}

		pool := service.ActivePool()
		if !pool.Squares[42].Assigned {
			t.Error("Expected square 42 to be assigned")
		}

		// A fresh service over the same file must see the claim.
		reloaded := NewBoardService(storage.NewFileStore(fs, "squares.json"))
		if !reloaded.ActivePool().Squares[42].Assigned {
			t.Error("Expected the claim to survive a reload")
		}
	})

	t.Run("failed command leaves state untouched", func(t *testing.T) {
		before := service.State()
		err := service.Dispatch(commands.ClaimSquare{
			PoolID:   poolID,
			SquareID: 42,
			Entry:    commands.Entry{Name: "Bob", Email: "bob@x.com", Alias: "B"},
		})
		if err == nil {
			t.Fatal("Expected an error claiming a taken square, but got nil")
		}
		after := service.State()
		if len(after.Pools[0].Participants) != len(before.Pools[0].Participants) {
			t.Error("Expected participant count to be unchanged after a failed command")
		}
	})

	t.Run("reads hand out copies", func(t *testing.T) {
		pool := service.ActivePool()
		pool.Squares[0].Alias = "mutated"
		if service.ActivePool().Squares[0].Alias == "mutated" {
			t.Error("Expected ActivePool to return a copy, not the live state")
		}
	})
}

func TestBoardService_LoadFallback(t *testing.T) {
	t.Run("corrupt snapshot falls back to defaults", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		if err := afero.WriteFile(fs, "squares.json", []byte("{broken"), 0o644); err != nil {
			t.Fatal(err)
		}
		service := NewBoardService(storage.NewFileStore(fs, "squares.json"))
		if len(service.State().Pools) != 1 {
			t.Fatalf("Expected one default pool, got %d", len(service.State().Pools))
		}
		if got := service.ActivePool().Name; got != "Super Bowl LIX" {
			t.Errorf("Expected the default pool name, got %q", got)
		}
	})

	t.Run("nil store still yields a working service", func(t *testing.T) {
		service := NewBoardService(nil)
		if err := service.Dispatch(commands.CreatePool{Name: "Second"}); err != nil {
			t.Fatalf("Expected dispatch to work without a store, got %v", err)
		}
	})
}

func TestBoardService_Roster(t *testing.T) {
	service := NewBoardService(nil)
	poolID := service.ActivePool().ID

	mustDispatch := func(cmd commands.Command) {
		t.Helper()
		if err := service.Dispatch(cmd); err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
	}

	// Alice holds two boxes, Bob one.
	mustDispatch(commands.ClaimSquare{PoolID: poolID, SquareID: 0, Entry: commands.Entry{Name: "Alice", Email: "alice@x.com", Alias: "ACE"}})
	mustDispatch(commands.ClaimSquare{PoolID: poolID, SquareID: 1, Entry: commands.Entry{Name: "Alice", Email: "alice@x.com", Alias: "ACE"}})
	mustDispatch(commands.ClaimSquare{PoolID: poolID, SquareID: 2, Entry: commands.Entry{Name: "Bob", Email: "bob@x.com", Alias: "BOB"}})

	alice := *service.ActivePool().Squares[0].ParticipantID
	mustDispatch(commands.ApplyPayment{PoolID: poolID, ParticipantID: alice, Amount: 15, Method: "Venmo"})

	roster := service.Roster(poolID)
	if len(roster) != 2 {
		t.Fatalf("Expected 2 roster entries, got %d", len(roster))
	}
	top := roster[0]
	if top.Name != "Alice" {
		t.Fatalf("Expected Alice first by box count, got %s", top.Name)
	}
	if top.BoxCount != 2 || top.TotalOwed != 20 || top.TotalPaid != 15 || top.Balance != 5 {
		t.Errorf("Unexpected Alice summary: %+v", top)
	}
	if len(top.PaymentMethods) != 1 || top.PaymentMethods[0] != "Venmo" {
		t.Errorf("Expected Alice's methods to be [Venmo], got %v", top.PaymentMethods)
	}
	if len(roster[1].PaymentMethods) != 1 || roster[1].PaymentMethods[0] != "None" {
		t.Errorf("Expected Bob's methods to be [None], got %v", roster[1].PaymentMethods)
	}

	t.Run("filter matches name, alias and email", func(t *testing.T) {
		if got := FilterRoster(roster, "ali"); len(got) != 1 || got[0].Name != "Alice" {
			t.Errorf("Expected name filter to match Alice, got %v", got)
		}
		if got := FilterRoster(roster, "BOB"); len(got) != 1 {
			t.Errorf("Expected alias filter to match Bob, got %v", got)
		}
		if got := FilterRoster(roster, "@x.com"); len(got) != 2 {
			t.Errorf("Expected email filter to match both, got %v", got)
		}
		if got := FilterRoster(roster, ""); len(got) != 2 {
			t.Errorf("Expected empty filter to keep everything, got %v", got)
		}
	})

	t.Run("totals track the collection dashboard", func(t *testing.T) {
		totals := service.Totals(poolID)
		if totals.TotalDue != 30 {
			t.Errorf("Expected 30 pledged, got %v", totals.TotalDue)
		}
		if totals.TotalCollected != 15 {
			t.Errorf("Expected 15 collected, got %v", totals.TotalCollected)
		}
		if totals.Outstanding != 15 {
			t.Errorf("Expected 15 outstanding, got %v", totals.Outstanding)
		}
		if totals.PercentCollected != 50 {
			t.Errorf("Expected 50 percent collected, got %v", totals.PercentCollected)
		}
	})
}

func TestBoardService_VerifySquareOwner(t *testing.T) {
	service := NewBoardService(nil)
	poolID := service.ActivePool().ID
	if err := service.Dispatch(commands.ClaimSquare{PoolID: poolID, SquareID: 9, Entry: commands.Entry{Name: "Alice", Email: "Alice@X.com", Alias: "ACE"}}); err != nil {
		t.Fatal(err)
	}

	if _, ok := service.VerifySquareOwner(poolID, 9, "alice@x.COM"); !ok {
		t.Error("Expected a case-insensitive email match to verify")
	}
	if _, ok := service.VerifySquareOwner(poolID, 9, "mallory@x.com"); ok {
		t.Error("Expected a mismatched email to fail verification")
	}
	if _, ok := service.VerifySquareOwner(poolID, 10, "alice@x.com"); ok {
		t.Error("Expected an unassigned square to fail verification")
	}
}

func TestBoardService_CheckAdminPassword(t *testing.T) {
	service := NewBoardService(nil)

	if !service.CheckAdminPassword("admin") {
		t.Error("Expected the default password to verify")
	}
	if service.CheckAdminPassword("wrong") {
		t.Error("Expected a wrong password to fail")
	}

	pw := "hunter2"
	if err := service.Dispatch(commands.UpdateGlobalSettings{AdminPassword: &pw}); err != nil {
		t.Fatal(err)
	}
	if !service.CheckAdminPassword("hunter2") {
		t.Error("Expected the updated password to verify")
	}
	if service.CheckAdminPassword("admin") {
		t.Error("Expected the old password to stop working")
	}
}
