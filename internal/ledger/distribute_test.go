package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"
)

func TestPoolForHeadcount(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{9, 0},
		{10, 220000},
		{13, 220000},
		{14, 280000},
		{17, 280000},
		{18, 330000},
		{22, 330000},
		{23, 380000},
		{24, 0},
		{0, 0},
	}
	for _, tc := range cases {
		if got := PoolForHeadcount(tc.n); got != tc.want {
			t.Errorf("PoolForHeadcount(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestComputeShares(t *testing.T) {
	entries := []HoursEntry{
		{UID: "a", Hours: 100},
		{UID: "b", Hours: 50},
		{UID: "c", Hours: 0},
	}
	shares, err := ComputeShares(entries, 100000, 10000)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// available = 90000; a gets 60000, b gets 30000, both already
	// multiples of 500.
	if shares[0].Amount != 60000 {
		t.Errorf("a = %d, want 60000", shares[0].Amount)
	}
	if shares[1].Amount != 30000 {
		t.Errorf("b = %d, want 30000", shares[1].Amount)
	}
	if shares[2].Amount != 0 {
		t.Errorf("zero-hour share = %d, want 0", shares[2].Amount)
	}
}

func TestComputeSharesFloorsTo500(t *testing.T) {
	entries := []HoursEntry{
		{UID: "a", Hours: 1},
		{UID: "b", Hours: 2},
	}
	shares, err := ComputeShares(entries, 10000, 0)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// Raw shares are 3333.33 and 6666.67; both floor to multiples of 500.
	if shares[0].Amount != 3000 {
		t.Errorf("a = %d, want 3000", shares[0].Amount)
	}
	if shares[1].Amount != 6500 {
		t.Errorf("b = %d, want 6500", shares[1].Amount)
	}
	if sum := shares[0].Amount + shares[1].Amount; sum > 10000 {
		t.Errorf("shares %d exceed pool", sum)
	}
}

func TestComputeSharesDeterministic(t *testing.T) {
	entries := []HoursEntry{
		{UID: "a", Hours: 37.5},
		{UID: "b", Hours: 12.25},
		{UID: "c", Hours: 80},
	}
	first, err := ComputeShares(entries, 220000, 20000)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := ComputeShares(entries, 220000, 20000)
		for j := range first {
			if again[j].Amount != first[j].Amount {
				t.Fatalf("run %d: share %s = %d, want %d", i, again[j].UID, again[j].Amount, first[j].Amount)
			}
		}
	}
}

func TestComputeSharesEmptyRoster(t *testing.T) {
	if _, err := ComputeShares(nil, 220000, 0); !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("err = %v, want ErrEmptyRoster", err)
	}
}

func TestComputeSharesReserveExceedsPool(t *testing.T) {
	shares, err := ComputeShares([]HoursEntry{{UID: "a", Hours: 10}}, 1000, 5000)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if shares[0].Amount != 0 {
		t.Errorf("share = %d, want 0 when reserve exceeds pool", shares[0].Amount)
	}
}

func TestDistribute(t *testing.T) {
	engine, db := setupEngine(t)

	entries := make([]HoursEntry, 0, 10)
	for _, uid := range []string{"u0", "u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8", "u9"} {
		createUser(t, db, uid, "User "+uid, 777)
		entries = append(entries, HoursEntry{UID: uid, Hours: 100})
	}

	if _, err := engine.Distribute(context.Background(), model.RoleButtoner, entries, 0); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin distribute: err = %v, want ErrForbidden", err)
	}

	shares, err := engine.Distribute(context.Background(), model.RoleAdmin, entries, 20000)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	// 10 people, pool 220000, reserve 20000: equal hours give 20000 each.
	for _, s := range shares {
		if s.Amount != 20000 {
			t.Errorf("share %s = %d, want 20000", s.UID, s.Amount)
		}
	}

	// Balances are SET, not incremented; the old 777 is gone.
	if got := balance(t, db, "u0"); got != 20000 {
		t.Errorf("balance = %d, want 20000", got)
	}

	txs, _ := store.NewTransactionStore(db).ListByUID("u0", 10)
	if len(txs) != 1 || txs[0].Type != model.TxMonthlySet {
		t.Fatalf("log = %+v", txs)
	}
	if txs[0].Amount != 20000-777 {
		t.Errorf("delta = %d, want %d", txs[0].Amount, 20000-777)
	}
	if txs[0].ItemsSummary != "monthly distribution" {
		t.Errorf("summary = %q", txs[0].ItemsSummary)
	}
}

func TestDistributeSkipsZeroHours(t *testing.T) {
	engine, db := setupEngine(t)

	entries := make([]HoursEntry, 0, 10)
	for i, uid := range []string{"u0", "u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8", "u9"} {
		createUser(t, db, uid, "User "+uid, 500)
		hours := 10.0
		if i == 0 {
			hours = 0
		}
		entries = append(entries, HoursEntry{UID: uid, Hours: hours})
	}

	if _, err := engine.Distribute(context.Background(), model.RoleAdmin, entries, 0); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	// The zero-hour user keeps the old balance and gets no log row.
	if got := balance(t, db, "u0"); got != 500 {
		t.Errorf("zero-hour balance = %d, want 500", got)
	}
	txs, _ := store.NewTransactionStore(db).ListByUID("u0", 10)
	if len(txs) != 0 {
		t.Errorf("zero-hour user has %d log rows, want 0", len(txs))
	}
}
