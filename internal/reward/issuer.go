// Package reward records reward grants alongside pin transitions and delivers
// them to the rewards ledger after the transition commits.
//
// A grant is written in the same transaction that resolves the pin, guarded
// by PinProgress.RewardsIssued and the unique pin_progress_id column, so a pin
// is rewarded at most once per student. Delivery happens later and may be
// retried; each point type is credited under a reason unique to the grant and
// flagged once applied, so a retry never double-credits.
package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/evaluation"
	"github.com/alexanderramin/expeditions/internal/external"
	"github.com/alexanderramin/expeditions/internal/metrics"
	"github.com/alexanderramin/expeditions/internal/repository"
	"github.com/google/uuid"
)

// DefaultLease bounds how long one delivery attempt holds a grant.
const DefaultLease = time.Minute

// Issue records a PENDING grant for a successful resolution inside tx and
// marks pp as rewarded. The caller persists pp in the same transaction.
// It returns nil when pp was already rewarded or the award is empty.
func Issue(ctx context.Context, tx db.DBTX, pp *domain.PinProgress, award evaluation.Award, now time.Time) (*domain.RewardGrant, error) {
	if pp.RewardsIssued {
		return nil, nil
	}
	pp.RewardsIssued = true
	if award.IsZero() {
		return nil, nil
	}

	g := &domain.RewardGrant{
		ID:               uuid.New().String(),
		PinProgressID:    pp.ID,
		PinID:            pp.PinID,
		StudentProfileID: pp.StudentProfileID,
		XP:               award.XP,
		GP:               award.GP,
		EarlyBonus:       award.EarlyBonus,
		Status:           domain.RewardPending,
		CreatedAt:        now,
	}
	if err := repository.NewSQLiteRewardGrantRepo(tx).Create(ctx, g); err != nil {
		return nil, fmt.Errorf("recording reward grant: %w", err)
	}
	return g, nil
}

// Issuer delivers recorded grants to the rewards ledger.
type Issuer struct {
	grants  repository.RewardGrantRepo
	ledger  external.RewardsLedger
	logger  *slog.Logger
	metrics *metrics.Metrics
	lease   time.Duration
	now     func() time.Time
}

type Option func(*Issuer)

func WithLogger(l *slog.Logger) Option {
	return func(i *Issuer) { i.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Issuer) { i.metrics = m }
}

func WithLease(d time.Duration) Option {
	return func(i *Issuer) { i.lease = d }
}

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(database db.DBTX, ledger external.RewardsLedger, opts ...Option) *Issuer {
	i := &Issuer{
		grants: repository.NewSQLiteRewardGrantRepo(database),
		ledger: ledger,
		logger: slog.New(slog.DiscardHandler),
		lease:  DefaultLease,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ErrGrantBusy is returned when another delivery holds the grant or it was
// already delivered.
var ErrGrantBusy = errors.New("reward grant is delivered or being delivered")

// Deliver credits the grant's outstanding points and marks it DELIVERED.
// On a ledger error the grant stays PENDING with the error recorded.
func (i *Issuer) Deliver(ctx context.Context, grantID string) (*domain.RewardGrant, error) {
	now := i.now()
	claimed, err := i.grants.Claim(ctx, grantID, now, now.Add(i.lease))
	if err != nil {
		return nil, err
	}
	if !claimed {
		i.metrics.RewardDelivery(metrics.RewardSkipped)
		return nil, ErrGrantBusy
	}

	g, err := i.grants.GetByID(ctx, grantID)
	if err != nil {
		return nil, err
	}

	for _, part := range []struct {
		pt        domain.PointType
		amount    int
		delivered bool
	}{
		{domain.PointXP, g.XP, g.XPDelivered},
		{domain.PointGP, g.GP, g.GPDelivered},
	} {
		if part.amount <= 0 || part.delivered {
			continue
		}
		if err := i.ledger.Credit(ctx, g.StudentProfileID, part.pt, part.amount, g.Reason(part.pt)); err != nil {
			return g, i.fail(ctx, g, part.pt, err)
		}
		if err := i.grants.MarkPointsDelivered(ctx, g.ID, part.pt); err != nil {
			return g, i.fail(ctx, g, part.pt, err)
		}
		if part.pt == domain.PointXP {
			g.XPDelivered = true
		} else {
			g.GPDelivered = true
		}
	}

	deliveredAt := i.now()
	if err := i.grants.MarkDelivered(ctx, g.ID, deliveredAt); err != nil {
		return g, i.fail(ctx, g, "", err)
	}
	g.Status = domain.RewardDelivered
	g.DeliveredAt = &deliveredAt
	g.LastError = ""

	i.metrics.RewardDelivery(metrics.RewardDelivered)
	i.logger.InfoContext(ctx, "reward_delivered",
		"grant_id", g.ID, "student", g.StudentProfileID, "pin_id", g.PinID,
		"xp", g.XP, "gp", g.GP, "early_bonus", g.EarlyBonus)
	return g, nil
}

func (i *Issuer) fail(ctx context.Context, g *domain.RewardGrant, pt domain.PointType, cause error) error {
	i.metrics.RewardDelivery(metrics.RewardFailed)
	i.logger.ErrorContext(ctx, "reward_delivery_failed",
		"grant_id", g.ID, "student", g.StudentProfileID, "pin_id", g.PinID,
		"point_type", string(pt), "error", cause.Error())
	g.LastError = cause.Error()
	if err := i.grants.RecordFailure(ctx, g.ID, cause.Error()); err != nil {
		return fmt.Errorf("delivering grant %s: %w (recording failure: %v)", g.ID, cause, err)
	}
	return fmt.Errorf("delivering grant %s: %w", g.ID, cause)
}

// RetryReport summarizes a RetryPending run.
type RetryReport struct {
	Attempted int
	Delivered int
	Failed    int
	Errors    []error
}

// RetryPending re-delivers up to limit PENDING grants, oldest first.
// limit <= 0 means all.
func (i *Issuer) RetryPending(ctx context.Context, limit int) (*RetryReport, error) {
	pending, err := i.grants.ListPending(ctx, limit)
	if err != nil {
		return nil, err
	}
	report := &RetryReport{}
	for _, g := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempted++
		if _, err := i.Deliver(ctx, g.ID); err != nil {
			if errors.Is(err, ErrGrantBusy) {
				report.Attempted--
				continue
			}
			report.Failed++
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Delivered++
	}
	return report, nil
}
