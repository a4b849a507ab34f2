package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() TaskInput {
	return TaskInput{
		ID:            "req-1",
		Title:         "Printer offline",
		Description:   "The third floor printer is offline",
		Category:      CategorySupport,
		RequesterRole: RoleEmployee,
		CreatedAt:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestTaskInput_Validate(t *testing.T) {
	t.Run("accepts sparse input", func(t *testing.T) {
		assert.NoError(t, validInput().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*TaskInput)
		field  string
	}{
		{"missing id", func(in *TaskInput) { in.ID = "" }, "id"},
		{"blank title", func(in *TaskInput) { in.Title = "   " }, "title"},
		{"empty description", func(in *TaskInput) { in.Description = "" }, "description"},
		{"zero created at", func(in *TaskInput) { in.CreatedAt = time.Time{} }, "createdAt"},
		{"business value too high", func(in *TaskInput) { in.BusinessValue = floatPtr(11) }, "businessValue"},
		{"business value too low", func(in *TaskInput) { in.BusinessValue = floatPtr(0.5) }, "businessValue"},
		{"risk level NaN", func(in *TaskInput) { in.RiskLevel = floatPtr(math.NaN()) }, "riskLevel"},
		{"zero effort", func(in *TaskInput) { in.EstimatedEffortHours = floatPtr(0) }, "estimatedEffortHours"},
		{"negative effort", func(in *TaskInput) { in.EstimatedEffortHours = floatPtr(-2) }, "estimatedEffortHours"},
		{"no affected users", func(in *TaskInput) { in.AffectedUsersCount = intPtr(0) }, "affectedUsersCount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := in.Validate()
			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("boundary overrides are valid", func(t *testing.T) {
		in := validInput()
		in.BusinessValue = floatPtr(10)
		in.RiskLevel = floatPtr(1)
		in.AffectedUsersCount = intPtr(1)
		in.EstimatedEffortHours = floatPtr(0.1)
		assert.NoError(t, in.Validate())
	})
}

func TestTaskInput_NearestTimeConstraint(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	meeting := base.Add(3 * time.Hour)
	deadline := base.Add(time.Hour)

	in := validInput()
	_, ok := in.NearestTimeConstraint()
	assert.False(t, ok)

	in.MeetingTime = &meeting
	got, ok := in.NearestTimeConstraint()
	require.True(t, ok)
	assert.Equal(t, meeting, got)

	in.Deadline = &deadline
	got, ok = in.NearestTimeConstraint()
	require.True(t, ok)
	assert.Equal(t, deadline, got)
}

func TestParseCategoryAndRole(t *testing.T) {
	assert.Equal(t, CategoryMeetingPrep, ParseCategory("meeting-prep"))
	assert.Equal(t, CategorySecurity, ParseCategory(" security "))
	assert.False(t, ParseCategory("facilities").IsKnown())

	assert.Equal(t, RoleITAdmin, ParseRole("it admin"))
	assert.True(t, ParseRole("cfo").IsExecutive())
	assert.False(t, RoleManager.IsExecutive())
}

func TestTaskInput_DecodeNormalizesEnums(t *testing.T) {
	var in TaskInput
	err := json.Unmarshal([]byte(`{"id":"req-7","title":"VPN down","category":"security","requesterRole":"ceo"}`), &in)
	require.NoError(t, err)

	assert.Equal(t, CategorySecurity, in.Category)
	assert.Equal(t, RoleCEO, in.RequesterRole)
	assert.True(t, in.RequesterRole.IsExecutive())

	out, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"category":"SECURITY"`)
	assert.Contains(t, string(out), `"requesterRole":"CEO"`)

	var weights map[Role]float64
	require.NoError(t, json.Unmarshal([]byte(`{"it admin":4,"cfo":6}`), &weights))
	assert.Equal(t, map[Role]float64{RoleITAdmin: 4, RoleCFO: 6}, weights)
}

func TestUrgencyLevel_Order(t *testing.T) {
	assert.True(t, UrgencyCritical.HigherThan(UrgencyHigh))
	assert.True(t, UrgencyHigh.HigherThan(UrgencyMedium))
	assert.True(t, UrgencyMedium.HigherThan(UrgencyLow))

	level, err := ParseUrgencyLevel("high")
	require.NoError(t, err)
	assert.Equal(t, UrgencyHigh, level)

	_, err = ParseUrgencyLevel("urgent")
	assert.ErrorIs(t, err, ErrInvalidUrgencyLevel)
}
