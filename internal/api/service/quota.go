package service

import (
	"context"
	"fmt"
	"time"

	"github.com/adityawrm/voiceguard/internal/api/domain"
	"github.com/adityawrm/voiceguard/internal/api/model"
)

// QuotaGate decides whether a user may submit a new analysis based on the
// Job Store history. It is a pure read: the check-then-insert window is not
// closed, so the daily limit is a soft bound under concurrent submissions.
type QuotaGate struct {
	jobs           JobStore
	freeDailyLimit int
}

// NewQuotaGate creates a QuotaGate. limit <= 0 falls back to the default.
func NewQuotaGate(jobs JobStore, limit int) *QuotaGate {
	if limit <= 0 {
		limit = domain.FreeDailyLimit
	}
	return &QuotaGate{jobs: jobs, freeDailyLimit: limit}
}

// Check returns nil when the user may submit. A FREE user over the daily
// limit gets a QuotaExceeded error reporting the current usage count.
func (g *QuotaGate) Check(ctx context.Context, user *model.User) error {
	if user.Plan == domain.PlanPremium {
		return nil
	}

	todayStart := time.Now().UTC().Truncate(24 * time.Hour)
	usage, err := g.jobs.CountSince(ctx, user.UserID, todayStart)
	if err != nil {
		return domain.WrapError(domain.KindPersistenceFailure, "failed to evaluate quota", err)
	}

	if usage >= g.freeDailyLimit {
		return domain.NewError(domain.KindQuotaExceeded,
			fmt.Sprintf("daily quota exhausted, used %d of %d", usage, g.freeDailyLimit))
	}

	return nil
}
