package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/selfmap/selfmap-backend/internal/store"
)

func newTestProvision(st *fakeStore, t *testing.T) ProvisionService {
	return NewProvisionService(st, testLogger(t))
}

func TestEnsureUserReturnsExistingRow(t *testing.T) {
	st := newFakeStore()
	id := uuid.New()
	st.seed(store.TableUsers, map[string]any{"id": id.String(), "email": "ada@example.com"})
	svc := newTestProvision(st, t)

	row, err := svc.EnsureUser(context.Background(), &Identity{UserID: id, Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if rowString(row, "id") != id.String() {
		t.Errorf("expected existing row, got %v", row)
	}
	if n, _ := st.Count(context.Background(), store.TableUsers, nil); n != 1 {
		t.Errorf("no new rows expected, got %d users", n)
	}
}

func TestEnsureUserCreatesShadow(t *testing.T) {
	st := newFakeStore()
	svc := newTestProvision(st, t)
	id := uuid.New()

	row, err := svc.EnsureUser(context.Background(), &Identity{
		UserID:   id,
		Email:    "grace@example.com",
		Metadata: map[string]any{"full_name": "Grace Hopper"},
	})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if rowString(row, "id") != id.String() {
		t.Errorf("shadow user must carry the provider id, got %v", row["id"])
	}
	if row["username"] != "grace" {
		t.Errorf("expected username derived from email, got %v", row["username"])
	}
	if row["first_name"] != "Grace" {
		t.Errorf("expected first name mined from metadata, got %v", row["first_name"])
	}
}

func TestEnsureUserRekeysByEmail(t *testing.T) {
	st := newFakeStore()
	st.seed(store.TableUsers, map[string]any{"id": "old-id", "email": "ada@example.com", "username": "ada"})
	st.seed(store.TableSystems, map[string]any{"id": "s1", "user_id": "old-id"})
	svc := newTestProvision(st, t)
	ctx := context.Background()
	id := uuid.New()

	row, err := svc.EnsureUser(ctx, &Identity{UserID: id, Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if rowString(row, "id") != id.String() {
		t.Errorf("account must move onto the provider id, got %v", row["id"])
	}
	if stale, _ := st.GetByID(ctx, store.TableUsers, "old-id"); stale != nil {
		t.Error("stale row must be dropped after re-keying")
	}
	system, _ := st.GetByID(ctx, store.TableSystems, "s1")
	if rowString(system, "user_id") != id.String() {
		t.Errorf("systems must be re-pointed, got owner %v", system["user_id"])
	}
}

func TestEnsureSystemCreatesSystemWithSelf(t *testing.T) {
	st := newFakeStore()
	svc := newTestProvision(st, t)
	ctx := context.Background()

	system, err := svc.EnsureSystem(ctx, "u1")
	if err != nil {
		t.Fatalf("ensure system: %v", err)
	}
	systemID := rowString(system, "id")
	parts, _ := st.GetAll(ctx, store.TableParts, map[string]any{"system_id": systemID})
	if len(parts) != 1 || parts[0]["name"] != "Self" {
		t.Fatalf("expected a Self part in the new system, got %v", parts)
	}

	// A second pass must not duplicate anything.
	again, err := svc.EnsureSystem(ctx, "u1")
	if err != nil {
		t.Fatalf("ensure system again: %v", err)
	}
	if rowString(again, "id") != systemID {
		t.Errorf("expected the same system, got %v", again["id"])
	}
	if n, _ := st.Count(ctx, store.TableParts, map[string]any{"system_id": systemID}); n != 1 {
		t.Errorf("Self part duplicated: %d parts", n)
	}
}

func TestEnsureSystemRestoresMissingSelf(t *testing.T) {
	st := newFakeStore()
	st.seed(store.TableSystems, map[string]any{"id": "s1", "user_id": "u1"})
	svc := newTestProvision(st, t)
	ctx := context.Background()

	if _, err := svc.EnsureSystem(ctx, "u1"); err != nil {
		t.Fatalf("ensure system: %v", err)
	}
	selves, _ := st.GetAll(ctx, store.TableParts, map[string]any{"system_id": "s1", "role": "Self"})
	if len(selves) != 1 {
		t.Errorf("expected the Self part to be recreated, got %d", len(selves))
	}
}
