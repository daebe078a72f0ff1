package services

import (
	"context"
	"testing"

	"github.com/selfmap/selfmap-backend/internal/store"
)

func newTestJournals(st *fakeStore, t *testing.T) JournalsService {
	log := testLogger(t)
	return NewJournalsService(st, NewQuotaService(st, log), log)
}

func strp(s string) *string { return &s }

func TestJournalCreateRendersMetadata(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	svc := newTestJournals(st, t)

	journal, err := svc.Create(context.Background(), "u1", &JournalInput{
		Title:    strp("Morning pages"),
		Content:  strp("The critic was quiet today."),
		Metadata: strp(`{"mood":"calm"}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if journal["metadata"] != `{"mood":"calm"}` {
		t.Errorf("expected metadata alias, got %v", journal)
	}
	if _, ok := journal["journal_metadata"]; ok {
		t.Error("storage column name must not leak into the API shape")
	}
}

func TestJournalCreateValidatesTitle(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	svc := newTestJournals(st, t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", &JournalInput{Content: strp("no title")})
	assertStatus(t, err, 400, "validation_failed")

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Create(ctx, "u1", &JournalInput{Title: strp(string(long))})
	assertStatus(t, err, 400, "validation_failed")
}

func TestJournalCreateVerifiesPart(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	svc := newTestJournals(st, t)

	_, err := svc.Create(context.Background(), "u1", &JournalInput{
		Title:  strp("On the critic"),
		PartID: strp("p-missing"),
	})
	assertStatus(t, err, 404, "part_not_found")
}

func TestJournalCreateQuota(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "free")
	svc := newTestJournals(st, t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", &JournalInput{Title: strp("First")}); err != nil {
		t.Fatalf("first journal: %v", err)
	}
	_, err := svc.Create(ctx, "u1", &JournalInput{Title: strp("Second")})
	assertStatus(t, err, 403, "quota_exceeded")
}

func TestJournalUpdateClearsPart(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	st.seed(store.TableParts, map[string]any{"id": "p1", "system_id": "s1", "name": "Critic"})
	st.seed(store.TableJournals, map[string]any{
		"id": "j1", "system_id": "s1", "title": "On the critic", "part_id": "p1",
	})
	svc := newTestJournals(st, t)

	journal, err := svc.Update(context.Background(), "u1", "j1", &JournalInput{PartID: strp("")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if journal["part_id"] != nil {
		t.Errorf("expected cleared part link, got %v", journal["part_id"])
	}
}

func TestJournalTenancy(t *testing.T) {
	st := newFakeStore()
	seedUserSystem(st, "pro")
	st.seed(store.TableUsers, map[string]any{"id": "u2", "subscription_tier": "pro"})
	st.seed(store.TableSystems, map[string]any{"id": "s2", "user_id": "u2", "name": "Other"})
	st.seed(store.TableJournals, map[string]any{"id": "j1", "system_id": "s1", "title": "Private"})
	svc := newTestJournals(st, t)

	_, err := svc.Get(context.Background(), "u2", "j1")
	assertStatus(t, err, 404, "journal_not_found")
}
