package store

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/selfmap/selfmap-backend/internal/db"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	if err := db.NewWithDB(gdb, log).AutoMigrateAll(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGorm(gdb, log)
}

func TestGormPartRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	system, err := st.Create(ctx, TableSystems, map[string]any{
		"user_id": "3f6f3a52-8cfa-4f2a-9c3e-6f1b7a1f0001",
		"name":    "My System",
	})
	if err != nil {
		t.Fatalf("create system: %v", err)
	}
	systemID, _ := system["id"].(string)

	part, err := st.Create(ctx, TableParts, map[string]any{
		"system_id": systemID,
		"name":      "Inner Critic",
		"role":      "Protector",
		"feelings":  []string{"anger", "fear", "shame"},
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	partID, _ := part["id"].(string)
	if partID == "" {
		t.Fatal("expected a generated part id")
	}

	got, err := st.GetByID(ctx, TableParts, partID)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	feelings, ok := got["feelings"].([]string)
	if !ok || len(feelings) != 3 || feelings[0] != "anger" || feelings[2] != "shame" {
		t.Errorf("list order must survive the round trip, got %v", got["feelings"])
	}

	updated, err := st.Update(ctx, TableParts, partID, map[string]any{"name": "The Critic"})
	if err != nil {
		t.Fatalf("update part: %v", err)
	}
	if updated["name"] != "The Critic" {
		t.Errorf("expected updated name, got %v", updated["name"])
	}
	if upd, _ := updated["feelings"].([]string); len(upd) != 3 {
		t.Errorf("untouched fields must survive an update, got %v", updated["feelings"])
	}

	n, err := st.Count(ctx, TableParts, map[string]any{"system_id": systemID})
	if err != nil || n != 1 {
		t.Errorf("expected count 1, got %d (%v)", n, err)
	}

	ok, err = st.Delete(ctx, TableParts, partID)
	if err != nil || !ok {
		t.Fatalf("delete part: ok=%v err=%v", ok, err)
	}
	if row, err := st.GetByID(ctx, TableParts, partID); err != nil || row != nil {
		t.Errorf("expected (nil, nil) after delete, got %v, %v", row, err)
	}
}

func TestGormMissingRows(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	missing := "11111111-2222-3333-4444-555555555555"

	if row, err := st.GetByID(ctx, TableParts, missing); err != nil || row != nil {
		t.Errorf("GetByID: expected (nil, nil), got %v, %v", row, err)
	}
	if row, err := st.Update(ctx, TableParts, missing, map[string]any{"name": "x"}); err != nil || row != nil {
		t.Errorf("Update: expected (nil, nil), got %v, %v", row, err)
	}
	if ok, err := st.Delete(ctx, TableParts, missing); err != nil || ok {
		t.Errorf("Delete: expected (false, nil), got %v, %v", ok, err)
	}
}

func TestGormGetAllFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Critic", "Exile"} {
		if _, err := st.Create(ctx, TableParts, map[string]any{
			"system_id": "3f6f3a52-8cfa-4f2a-9c3e-6f1b7a1f0002",
			"name":      name,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := st.Create(ctx, TableParts, map[string]any{
		"system_id": "3f6f3a52-8cfa-4f2a-9c3e-6f1b7a1f0003",
		"name":      "Other",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := st.GetAll(ctx, TableParts, map[string]any{"system_id": "3f6f3a52-8cfa-4f2a-9c3e-6f1b7a1f0002"})
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestGormSessionMessageHidesEmbedding(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	session, err := st.Create(ctx, TableGuidedSessions, map[string]any{
		"user_id":   "3f6f3a52-8cfa-4f2a-9c3e-6f1b7a1f0004",
		"system_id": "3f6f3a52-8cfa-4f2a-9c3e-6f1b7a1f0005",
		"title":     "Check-in",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session["status"] != "active" {
		t.Errorf("expected default active status, got %v", session["status"])
	}

	msg, err := st.Create(ctx, TableSessionMessages, map[string]any{
		"session_id": session["id"],
		"role":       "user",
		"content":    "hello",
		"embedding":  []float32{0.1, 0.2, 0.3},
	})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if _, ok := msg["embedding"]; ok {
		t.Error("embedding must not appear in rendered rows")
	}
	if msg["content"] != "hello" || msg["role"] != "user" {
		t.Errorf("unexpected message row: %v", msg)
	}
}

func TestGormUpdateClearsNullableColumns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.Create(ctx, TableUsers, map[string]any{
		"username":               "ada",
		"email":                  "ada@example.com",
		"password_hash":          "x",
		"subscription_tier":      "pro",
		"stripe_customer_id":     "cus_123",
		"stripe_subscription_id": "sub_123",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user["stripe_subscription_id"] != "sub_123" {
		t.Fatalf("expected stored subscription id, got %v", user["stripe_subscription_id"])
	}
	userID, _ := user["id"].(string)

	// A canceled subscription writes an explicit nil; the column must
	// actually clear, not keep its old value.
	updated, err := st.Update(ctx, TableUsers, userID, map[string]any{
		"subscription_tier":      "free",
		"stripe_subscription_id": nil,
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated["stripe_subscription_id"] != nil {
		t.Errorf("expected cleared subscription id, got %v", updated["stripe_subscription_id"])
	}

	got, err := st.GetByID(ctx, TableUsers, userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got["stripe_subscription_id"] != nil {
		t.Errorf("cleared subscription id came back on re-read: %v", got["stripe_subscription_id"])
	}
	if got["stripe_customer_id"] != "cus_123" {
		t.Errorf("customer id must survive the update, got %v", got["stripe_customer_id"])
	}
	if got["subscription_tier"] != "free" {
		t.Errorf("expected free tier, got %v", got["subscription_tier"])
	}
}

func TestGormUnknownTable(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.GetByID(context.Background(), "no_such_table", "id"); err == nil {
		t.Error("expected an error for an unknown table")
	}
}
