package service

import (
	"context"
	"time"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/repository"
	"github.com/alexanderramin/expeditions/internal/reward"
)

type rewardService struct {
	grants   repository.RewardGrantRepo
	issuer   *reward.Issuer
	observer UseCaseObserver
}

func NewRewardService(grants repository.RewardGrantRepo, issuer *reward.Issuer, observers ...UseCaseObserver) RewardService {
	return &rewardService{grants: grants, issuer: issuer, observer: useCaseObserverOrNoop(observers)}
}

func (s *rewardService) RetryPending(ctx context.Context, limit int) (out *contract.RetryReport, err error) {
	fields := map[string]any{"limit": limit}
	defer observe(ctx, s.observer, "retry-rewards", time.Now(), fields, &err)

	report, err := s.issuer.RetryPending(ctx, limit)
	if report != nil {
		out = &contract.RetryReport{
			Attempted: report.Attempted,
			Delivered: report.Delivered,
			Failed:    report.Failed,
		}
		for _, e := range report.Errors {
			out.Errors = append(out.Errors, e.Error())
		}
		fields["attempted"] = report.Attempted
		fields["delivered"] = report.Delivered
		fields["failed"] = report.Failed
	}
	return out, err
}

func (s *rewardService) ListGrants(ctx context.Context, studentID string) ([]contract.RewardView, error) {
	grants, err := s.grants.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]contract.RewardView, 0, len(grants))
	for _, g := range grants {
		out = append(out, *contract.NewRewardView(g))
	}
	return out, nil
}
