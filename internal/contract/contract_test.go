package contract

import (
	"testing"
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPin() PinFields {
	return PinFields{Type: "OBJECTIVE", Name: "Quiz", RewardXP: 10}
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	var names []string
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidate_NewPinRequest(t *testing.T) {
	req := NewPinRequest{TeacherProfileID: "t1", ExpeditionID: "e1", PinFields: validPin()}
	require.NoError(t, Validate(req))

	req.Type = "BOSS"
	req.RewardGP = -1
	req.Name = ""
	err := Validate(req)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.ElementsMatch(t, []string{"pinType", "rewardGp", "name"}, fieldNames(t, err))
	assert.Contains(t, err.Error(), "pinType must be one of INTRO, OBJECTIVE, FINAL")
}

func TestValidate_EarlyDateRequiredWhenEnabled(t *testing.T) {
	req := NewPinRequest{TeacherProfileID: "t1", ExpeditionID: "e1", PinFields: validPin()}
	req.EarlySubmissionEnabled = true
	assert.Equal(t, []string{"earlySubmissionDate"}, fieldNames(t, Validate(req)))

	d := time.Now()
	req.EarlySubmissionDate = &d
	assert.NoError(t, Validate(req))
}

func TestValidate_ConnectionSelfLoop(t *testing.T) {
	req := NewConnectionRequest{TeacherProfileID: "t1", ExpeditionID: "e1", FromPinID: "a", ToPinID: "a"}
	assert.Equal(t, []string{"toPinId"}, fieldNames(t, Validate(req)))
}

func TestValidate_DecisionRequiresPassed(t *testing.T) {
	req := DecisionRequest{TeacherProfileID: "t1", PinID: "p", StudentProfileID: "s"}
	assert.Equal(t, []string{"passed"}, fieldNames(t, Validate(req)))

	req.Passed = domain.BoolPtr(false)
	assert.NoError(t, Validate(req))
}

func TestValidate_SubmitFiles(t *testing.T) {
	req := SubmitRequest{StudentProfileID: "s", PinID: "p", Files: []string{"a.pdf", ""}}
	assert.Error(t, Validate(req))

	req.Files = nil
	assert.NoError(t, Validate(req))
}

func TestPinFields_RoundTrip(t *testing.T) {
	early := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	pin := &domain.Pin{
		Type: domain.PinFinal, Name: "Summit", RequiresSubmission: true,
		EarlySubmissionEnabled: true, EarlySubmissionDate: &early,
		RewardXP: 5, EarlyBonusGP: 2, AutoProgress: domain.BoolPtr(true),
	}
	var copyPin domain.Pin
	PinFieldsFrom(pin).Apply(&copyPin)
	assert.Equal(t, *pin, copyPin)
}

func TestExpeditionState_PinStatus(t *testing.T) {
	s := &ExpeditionState{PinProgress: []PinProgressView{{PinID: "a", Status: "PASSED"}}}
	assert.Equal(t, "PASSED", s.PinStatus("a"))
	assert.Equal(t, "", s.PinStatus("b"))
}
