package journal

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oweslake/pinwarden/internal/infrastructure/database"

	// Register embedded migrations so the test schema matches production.
	_ "github.com/oweslake/pinwarden/migrations"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return NewSQLiteRepository(db.DB)
}

func mustCreate(t *testing.T, repo *SQLiteRepository, entry Entry) Entry {
	t.Helper()

	if err := repo.Create(context.Background(), &entry); err != nil {
		t.Fatalf("creating journal entry: %v", err)
	}
	return entry
}

func TestSQLiteRepository_Create(t *testing.T) {
	repo := openTestRepo(t)
	value := 1

	entry := mustCreate(t, repo, Entry{
		Origin:    "socket",
		Pin:       17,
		Action:    "configure",
		Direction: "output",
		Value:     &value,
		Success:   true,
	})

	if !strings.HasPrefix(entry.ID, "evt-") {
		t.Errorf("generated ID = %q, want evt- prefix", entry.ID)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt not generated")
	}

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("List() total = %d, entries = %d, want 1, 1", result.Total, len(result.Entries))
	}

	got := result.Entries[0]
	if got.ID != entry.ID || got.Origin != "socket" || got.Pin != 17 ||
		got.Action != "configure" || got.Direction != "output" || !got.Success {
		t.Errorf("round-tripped entry = %+v", got)
	}
	if got.Value == nil || *got.Value != 1 {
		t.Errorf("round-tripped value = %v, want 1", got.Value)
	}
	if got.Error != "" {
		t.Errorf("round-tripped error = %q, want empty", got.Error)
	}
}

func TestSQLiteRepository_Create_PreservesExplicitFields(t *testing.T) {
	repo := openTestRepo(t)
	created := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)

	entry := mustCreate(t, repo, Entry{
		ID:        "evt-fixed001",
		Origin:    "mqtt",
		Pin:       4,
		Action:    "read",
		Success:   false,
		Error:     "Pin 4 is not configured",
		CreatedAt: created,
	})

	if entry.ID != "evt-fixed001" {
		t.Errorf("ID = %q, want explicit ID preserved", entry.ID)
	}

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	got := result.Entries[0]
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if got.Error != "Pin 4 is not configured" {
		t.Errorf("Error = %q, want stored error text", got.Error)
	}
	if got.Value != nil {
		t.Errorf("Value = %v, want nil", got.Value)
	}
}

func seedEntries(t *testing.T, repo *SQLiteRepository) {
	t.Helper()

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	one := 1
	zero := 0

	fixtures := []Entry{
		{Origin: "socket", Pin: 17, Action: "configure", Direction: "output", Value: &one, Success: true},
		{Origin: "socket", Pin: 17, Action: "write", Value: &zero, Success: true},
		{Origin: "mqtt", Pin: 4, Action: "configure", Direction: "input", Success: true},
		{Origin: "mqtt", Pin: 4, Action: "read", Value: &one, Success: true},
		{Origin: "socket", Pin: 0, Action: "read", Success: false, Error: "Pin 0 is not configured"},
		{Origin: "mqtt", Pin: -1, Action: "invalid", Success: false, Error: "Invalid JSON request"},
	}

	for i := range fixtures {
		fixtures[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		mustCreate(t, repo, fixtures[i])
	}
}

func TestSQLiteRepository_List_Filters(t *testing.T) {
	repo := openTestRepo(t)
	seedEntries(t, repo)

	boolPtr := func(b bool) *bool { return &b }
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
	}{
		{"no filter", Filter{}, 6},
		{"by origin socket", Filter{Origin: "socket"}, 3},
		{"by origin mqtt", Filter{Origin: "mqtt"}, 3},
		{"by action configure", Filter{Action: "configure"}, 2},
		{"by action invalid", Filter{Action: "invalid"}, 1},
		{"by pin", Filter{Pin: intPtr(17)}, 2},
		{"by pin zero", Filter{Pin: intPtr(0)}, 1},
		{"by failure", Filter{Success: boolPtr(false)}, 2},
		{"combined", Filter{Origin: "mqtt", Action: "read"}, 1},
		{"no match", Filter{Origin: "socket", Pin: intPtr(4)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if result.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", result.Total, tt.wantTotal)
			}
			if len(result.Entries) != tt.wantTotal {
				t.Errorf("len(Entries) = %d, want %d", len(result.Entries), tt.wantTotal)
			}
		})
	}
}

func TestSQLiteRepository_List_OrderAndPagination(t *testing.T) {
	repo := openTestRepo(t)
	seedEntries(t, repo)

	// Most recent first.
	result, err := repo.List(context.Background(), Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 6 {
		t.Errorf("Total = %d, want 6", result.Total)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(result.Entries))
	}
	if result.Entries[0].Action != "invalid" {
		t.Errorf("first entry action = %q, want most recent (invalid)", result.Entries[0].Action)
	}

	// Second page.
	result, err = repo.List(context.Background(), Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("len(Entries) at offset 4 = %d, want 2", len(result.Entries))
	}
	if result.Entries[1].Action != "configure" || result.Entries[1].Pin != 17 {
		t.Errorf("oldest entry = %+v, want first seeded configure", result.Entries[1])
	}
}

func TestSQLiteRepository_List_ClampsLimits(t *testing.T) {
	repo := openTestRepo(t)

	result, err := repo.List(context.Background(), Filter{Limit: 0, Offset: -5})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Limit != 50 {
		t.Errorf("default Limit = %d, want 50", result.Limit)
	}
	if result.Offset != 0 {
		t.Errorf("clamped Offset = %d, want 0", result.Offset)
	}

	result, err = repo.List(context.Background(), Filter{Limit: 9999})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Limit != 200 {
		t.Errorf("clamped Limit = %d, want 200", result.Limit)
	}
}

func TestSQLiteRepository_List_Empty(t *testing.T) {
	repo := openTestRepo(t)

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0", result.Total)
	}
	if result.Entries == nil || len(result.Entries) != 0 {
		t.Errorf("Entries = %v, want empty non-nil slice", result.Entries)
	}
}
