package services

import (
	"context"
	"testing"

	"github.com/selfmap/selfmap-backend/internal/store"
)

func newTestSystems(st *fakeStore, t *testing.T) SystemsService {
	log := testLogger(t)
	return NewSystemsService(st, NewProvisionService(st, log), log)
}

func TestSystemsGetPrimaryProvisionsOnFirstAccess(t *testing.T) {
	st := newFakeStore()
	st.seed(store.TableUsers, map[string]any{"id": "u1"})
	svc := newTestSystems(st, t)

	system, err := svc.GetPrimary(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get primary: %v", err)
	}
	if rowInt(system, "parts_count") != 1 {
		t.Errorf("new system must contain its Self part, got parts_count %v", system["parts_count"])
	}
}

func TestSystemsGetByIDTenancy(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	svc := newTestSystems(st, t)

	_, err := svc.GetByID(context.Background(), "u-other", "s1")
	assertStatus(t, err, 404, "system_not_found")
}

func TestSystemsOverview(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	st.seed(store.TableParts,
		map[string]any{"id": "p0", "system_id": "s1", "name": "Self", "role": "Self"},
		map[string]any{"id": "p1", "system_id": "s1", "name": "Critic"},
		map[string]any{"id": "p2", "system_id": "s1", "name": "Exile"},
	)
	st.seed(store.TableRelationships, map[string]any{"id": "r1", "system_id": "s1", "part1_id": "p1", "part2_id": "p2"})
	st.seed(store.TableJournals,
		map[string]any{"id": "j1", "system_id": "s1", "title": "One"},
		map[string]any{"id": "j2", "system_id": "s1", "title": "Two"},
	)
	svc := newTestSystems(st, t)

	overview, err := svc.Overview(context.Background(), "u1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if rowInt(overview, "parts_count") != 3 {
		t.Errorf("expected 3 parts, got %v", overview["parts_count"])
	}
	if rowInt(overview, "relationships_count") != 1 {
		t.Errorf("expected 1 relationship, got %v", overview["relationships_count"])
	}
	if rowInt(overview, "journals_count") != 2 {
		t.Errorf("expected 2 journals, got %v", overview["journals_count"])
	}
	parts, ok := overview["parts"].([]map[string]any)
	if !ok || len(parts) != 3 {
		t.Errorf("expected full parts list, got %v", overview["parts"])
	}
}

func TestSystemsResetKeepsSelf(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	st.seed(store.TableParts,
		map[string]any{"id": "p0", "system_id": "s1", "name": "Self", "role": "Self"},
		map[string]any{"id": "p1", "system_id": "s1", "name": "Critic"},
	)
	st.seed(store.TableRelationships, map[string]any{"id": "r1", "system_id": "s1", "part1_id": "p0", "part2_id": "p1"})
	st.seed(store.TableJournals, map[string]any{"id": "j1", "system_id": "s1", "title": "One"})
	svc := newTestSystems(st, t)
	ctx := context.Background()

	if err := svc.Reset(ctx, "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	parts, _ := st.GetAll(ctx, store.TableParts, map[string]any{"system_id": "s1"})
	if len(parts) != 1 || parts[0]["name"] != "Self" {
		t.Errorf("only the Self part should survive a reset, got %v", parts)
	}
	if n, _ := st.Count(ctx, store.TableRelationships, map[string]any{"system_id": "s1"}); n != 0 {
		t.Errorf("expected relationships cleared, got %d", n)
	}
	if n, _ := st.Count(ctx, store.TableJournals, map[string]any{"system_id": "s1"}); n != 0 {
		t.Errorf("expected journals cleared, got %d", n)
	}
}

func TestSystemsResetWithoutSystem(t *testing.T) {
	st := newFakeStore()
	st.seed(store.TableUsers, map[string]any{"id": "u1"})
	svc := newTestSystems(st, t)

	err := svc.Reset(context.Background(), "u1")
	assertStatus(t, err, 404, "system_not_found")
}
