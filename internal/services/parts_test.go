package services

import (
	"context"
	"testing"

	"github.com/selfmap/selfmap-backend/internal/store"
	"github.com/selfmap/selfmap-backend/internal/types"
)

func newTestParts(st *fakeStore, t *testing.T) PartsService {
	log := testLogger(t)
	return NewPartsService(st, NewQuotaService(st, log), log)
}

func seedUserSystem(st *fakeStore, tier string) {
	st.seed(store.TableUsers, map[string]any{"id": "u1", "subscription_tier": tier})
	st.seed(store.TableSystems, map[string]any{"id": "s1", "user_id": "u1", "name": "My System"})
}

func TestPartsCreateAndGet(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	svc := newTestParts(st, t)
	ctx := context.Background()

	role := "Protector"
	part, err := svc.Create(ctx, "u1", &PartInput{Name: "Inner Critic", SystemID: "s1", Role: &role})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Get(ctx, "u1", rowString(part, "id"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["name"] != "Inner Critic" || got["role"] != "Protector" {
		t.Errorf("unexpected part row: %v", got)
	}
}

func TestPartsCreateValidation(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	svc := newTestParts(st, t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", &PartInput{SystemID: "s1"})
	assertStatus(t, err, 400, "validation_failed")

	_, err = svc.Create(ctx, "u1", &PartInput{Name: "Critic"})
	assertStatus(t, err, 400, "validation_failed")
}

func TestPartsCreateForeignSystem(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	st.seed(store.TableUsers, map[string]any{"id": "u2", "subscription_tier": "pro"})
	svc := newTestParts(st, t)

	_, err := svc.Create(context.Background(), "u2", &PartInput{Name: "Critic", SystemID: "s1"})
	assertStatus(t, err, 404, "system_not_found")
}

func TestPartsListRequiresSystemID(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	svc := newTestParts(st, t)

	_, err := svc.List(context.Background(), "u1", "")
	assertStatus(t, err, 400, "validation_failed")
}

func TestPartsDeleteProtectsSelf(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	st.seed(store.TableParts, map[string]any{"id": "p1", "system_id": "s1", "name": types.SelfPartName})
	svc := newTestParts(st, t)

	err := svc.Delete(context.Background(), "u1", "p1")
	assertStatus(t, err, 403, "self_part_protected")

	if row, _ := st.GetByID(context.Background(), store.TableParts, "p1"); row == nil {
		t.Fatal("Self part must survive a delete attempt")
	}
}

func TestPartsDelete(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	st.seed(store.TableParts, map[string]any{"id": "p1", "system_id": "s1", "name": "Critic"})
	svc := newTestParts(st, t)
	ctx := context.Background()

	if err := svc.Delete(ctx, "u1", "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if row, _ := st.GetByID(ctx, store.TableParts, "p1"); row != nil {
		t.Error("part still present after delete")
	}
	err := svc.Delete(ctx, "u1", "p1")
	assertStatus(t, err, 404, "part_not_found")
}

func TestPartsUpdateClearsListField(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	st.seed(store.TableParts, map[string]any{
		"id": "p1", "system_id": "s1", "name": "Critic",
		"feelings": []string{"anger"},
	})
	svc := newTestParts(st, t)

	empty := []string{}
	part, err := svc.Update(context.Background(), "u1", "p1", &PartInput{Name: "Critic", Feelings: &empty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	feelings, ok := part["feelings"].([]string)
	if !ok || len(feelings) != 0 {
		t.Errorf("expected emptied feelings, got %v", part["feelings"])
	}
}

func TestPartsQuotaEnforcedOnCreate(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "free")
	for i := 0; i < 10; i++ {
		st.seed(store.TableParts, map[string]any{"system_id": "s1", "name": "p"})
	}
	svc := newTestParts(st, t)

	_, err := svc.Create(context.Background(), "u1", &PartInput{Name: "One Too Many", SystemID: "s1"})
	assertStatus(t, err, 403, "quota_exceeded")
}
