// Package evaluation decides how an attempt, a submission or a teacher decision
// resolves a pin. It has no I/O; the progression service applies the results.
package evaluation

import (
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
)

// Result is the status a pin should move to and whether a teacher must still act.
type Result struct {
	Status      domain.PinStatus
	NeedsReview bool
}

// successStatus is the terminal success status for the pin's type.
func successStatus(pin *domain.Pin) domain.PinStatus {
	if pin.Type == domain.PinObjective {
		return domain.PinPassed
	}
	return domain.PinCompleted
}

// Continue evaluates a student opening or continuing a pin without uploading.
// Continue-only pins resolve immediately; submission pins open for work.
func Continue(pin *domain.Pin) Result {
	if !pin.RequiresSubmission {
		return Result{Status: successStatus(pin)}
	}
	return Result{Status: domain.PinInProgress}
}

// Submit evaluates a new submission. INTRO and FINAL pins with effective
// auto-progress complete at once; everything else waits for a teacher decision.
func Submit(pin *domain.Pin, exp *domain.Expedition) (Result, error) {
	if !pin.RequiresSubmission {
		return Result{}, &domain.InvalidTransitionError{
			Entity: "pin", ID: pin.ID,
			Reason: "pin does not accept submissions",
		}
	}
	if pin.IsNarrative() && pin.EffectiveAutoProgress(exp) {
		return Result{Status: domain.PinCompleted}, nil
	}
	return Result{Status: domain.PinInProgress, NeedsReview: true}, nil
}

// Decide maps a teacher's pass/fail decision to the pin's resolved status.
func Decide(pin *domain.Pin, passed bool) (domain.PinStatus, error) {
	if !pin.RequiresSubmission {
		return "", &domain.InvalidTransitionError{
			Entity: "pin", ID: pin.ID,
			Reason: "pin does not require submission, nothing to review",
		}
	}
	if !passed {
		return domain.PinFailed, nil
	}
	return successStatus(pin), nil
}

// Award is what a successful resolution earns.
type Award struct {
	XP         int
	GP         int
	EarlyBonus bool
}

// IsZero reports whether there is nothing to credit.
func (a Award) IsZero() bool { return a.XP == 0 && a.GP == 0 }

// Reward computes the award for a successful pin. at is the latest submission's
// time, or the resolution time for pins without a submission.
func Reward(pin *domain.Pin, at time.Time) Award {
	a := Award{XP: pin.RewardXP, GP: pin.RewardGP}
	if pin.QualifiesForEarlyBonus(at) {
		a.XP += pin.EarlyBonusXP
		a.GP += pin.EarlyBonusGP
		a.EarlyBonus = true
	}
	return a
}
