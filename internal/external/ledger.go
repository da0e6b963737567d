package external

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/repository"
	"github.com/google/uuid"
)

// SQLiteLedger is a RewardsLedger that records credits in the local database.
type SQLiteLedger struct {
	repo repository.LedgerRepo
}

func NewSQLiteLedger(database db.DBTX) *SQLiteLedger {
	return &SQLiteLedger{repo: repository.NewSQLiteLedgerRepo(database)}
}

func (l *SQLiteLedger) Credit(ctx context.Context, studentProfileID string, pt domain.PointType, amount int, reason string) error {
	if amount <= 0 {
		return nil
	}
	_, err := l.repo.Insert(ctx, &domain.LedgerEntry{
		ID:               uuid.New().String(),
		StudentProfileID: studentProfileID,
		PointType:        pt,
		Amount:           amount,
		Reason:           reason,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("crediting %d %s to %s: %w", amount, pt, studentProfileID, err)
	}
	return nil
}

func (l *SQLiteLedger) Balance(ctx context.Context, studentProfileID string, pt domain.PointType) (int, error) {
	return l.repo.Balance(ctx, studentProfileID, pt)
}
