package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/store"
	"github.com/selfmap/selfmap-backend/internal/types"
)

// unlimited marks a quota with no ceiling.
const unlimited = -1

type tierLimits struct {
	Messages int
	Journals int
	Parts    int
}

var limitsByTier = map[string]tierLimits{
	types.TierFree:      {Messages: 10, Journals: 1, Parts: 10},
	types.TierPro:       {Messages: 30, Journals: 10, Parts: 20},
	types.TierUnlimited: {Messages: unlimited, Journals: unlimited, Parts: unlimited},
}

func limitsFor(tier string) tierLimits {
	if l, ok := limitsByTier[tier]; ok {
		return l
	}
	return limitsByTier[types.TierFree]
}

// QuotaService enforces tier usage limits. Messages and journals use
// daily counters on the user row with a UTC date rollover; parts are
// limited by a live count of the system's rows. Counters are
// incremented only after the protected operation succeeds, so failed
// attempts are never charged.
type QuotaService interface {
	// CheckMessageAllowance resets a stale counter, then rejects with
	// 403 when the day's budget is spent. Called before any LLM work.
	CheckMessageAllowance(ctx context.Context, userID string) error
	RecordMessage(ctx context.Context, userID string) error
	CheckJournalAllowance(ctx context.Context, userID string) error
	RecordJournal(ctx context.Context, userID string) error
	CheckPartAllowance(ctx context.Context, userID, systemID string) error
}

type quotaService struct {
	store store.Store
	log   *logger.Logger
	// now is swappable for rollover tests.
	now func() time.Time
}

func NewQuotaService(st store.Store, log *logger.Logger) QuotaService {
	return &quotaService{store: st, log: log.With("service", "QuotaService"), now: time.Now}
}

func (s *quotaService) today() string {
	return s.now().UTC().Format("2006-01-02")
}

func quotaExceeded(resource, tier string) *apierr.Error {
	msg := fmt.Sprintf("Daily %s limit reached for the %s tier.", resource, tier)
	switch tier {
	case types.TierFree:
		msg += " Upgrade to Pro for a higher limit."
	case types.TierPro:
		msg += " Upgrade to Unlimited to remove limits."
	}
	return apierr.New(http.StatusForbidden, "quota_exceeded", fmt.Errorf("%s", msg))
}

func (s *quotaService) CheckMessageAllowance(ctx context.Context, userID string) error {
	return s.checkCounter(ctx, userID, "message", "daily_messages_used", "last_message_date", func(l tierLimits) int { return l.Messages })
}

func (s *quotaService) RecordMessage(ctx context.Context, userID string) error {
	return s.recordUse(ctx, userID, "daily_messages_used", "last_message_date")
}

func (s *quotaService) CheckJournalAllowance(ctx context.Context, userID string) error {
	return s.checkCounter(ctx, userID, "journal entry", "daily_journals_used", "last_journal_date", func(l tierLimits) int { return l.Journals })
}

func (s *quotaService) RecordJournal(ctx context.Context, userID string) error {
	return s.recordUse(ctx, userID, "daily_journals_used", "last_journal_date")
}

func (s *quotaService) checkCounter(ctx context.Context, userID, resource, counterKey, dateKey string, limitOf func(tierLimits) int) error {
	user, err := s.store.GetByID(ctx, store.TableUsers, userID)
	if err != nil {
		return apierr.Internal(err)
	}
	if user == nil {
		return apierr.NotFound("user_not_found", fmt.Errorf("user not found"))
	}
	tier := rowString(user, "subscription_tier")
	if tier == "" {
		tier = types.TierFree
	}
	limit := limitOf(limitsFor(tier))
	if limit == unlimited {
		return nil
	}

	used := rowInt(user, counterKey)
	if rowDate(user, dateKey) != s.today() {
		// New day: reset before the limit check.
		used = 0
		if _, uerr := s.store.Update(ctx, store.TableUsers, userID, map[string]any{
			counterKey: 0,
			dateKey:    s.now().UTC(),
		}); uerr != nil {
			return apierr.Internal(uerr)
		}
	}
	if used >= limit {
		return quotaExceeded(resource, tier)
	}
	return nil
}

func (s *quotaService) recordUse(ctx context.Context, userID, counterKey, dateKey string) error {
	user, err := s.store.GetByID(ctx, store.TableUsers, userID)
	if err != nil {
		return apierr.Internal(err)
	}
	if user == nil {
		return apierr.NotFound("user_not_found", fmt.Errorf("user not found"))
	}
	used := rowInt(user, counterKey)
	if rowDate(user, dateKey) != s.today() {
		used = 0
	}
	if _, err := s.store.Update(ctx, store.TableUsers, userID, map[string]any{
		counterKey: used + 1,
		dateKey:    s.now().UTC(),
	}); err != nil {
		return apierr.Internal(err)
	}
	return nil
}

func (s *quotaService) CheckPartAllowance(ctx context.Context, userID, systemID string) error {
	user, err := s.store.GetByID(ctx, store.TableUsers, userID)
	if err != nil {
		return apierr.Internal(err)
	}
	if user == nil {
		return apierr.NotFound("user_not_found", fmt.Errorf("user not found"))
	}
	tier := rowString(user, "subscription_tier")
	if tier == "" {
		tier = types.TierFree
	}
	limit := limitsFor(tier).Parts
	if limit == unlimited {
		return nil
	}
	count, err := s.store.Count(ctx, store.TableParts, map[string]any{"system_id": systemID})
	if err != nil {
		return apierr.Internal(err)
	}
	if count >= int64(limit) {
		msg := fmt.Sprintf("Part limit reached for the %s tier.", tier)
		switch tier {
		case types.TierFree:
			msg += " Upgrade to Pro for a higher limit."
		case types.TierPro:
			msg += " Upgrade to Unlimited to remove limits."
		}
		return apierr.New(http.StatusForbidden, "quota_exceeded", fmt.Errorf("%s", msg))
	}
	return nil
}
