package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containerRules() []*Rule {
	return []*Rule{
		Text("containerId", "Container ID").Required(),
		Text("zone", "Zone").Required(),
		Int("width", "Width").Required().Min(1),
		Int("depth", "Depth").Required().Min(1),
		Int("height", "Height").Required().Min(1),
	}
}

func TestValidate_AcceptsGoodInput(t *testing.T) {
	res, err := Validate(containerRules(), Values{
		"containerId": " C1 ", "zone": "Lab", "width": "10", "depth": "20", "height": "30",
	})
	require.NoError(t, err)
	assert.Equal(t, "C1", res.String("containerId"))
	assert.Equal(t, 10, res.Int("width"))
	assert.Equal(t, 30, res.Int("height"))
}

func TestValidate_RejectsNonNumericWidth(t *testing.T) {
	_, err := Validate(containerRules(), Values{
		"containerId": "C1", "zone": "Lab", "width": "abc", "depth": "1", "height": "1",
	})
	require.Error(t, err)

	var errs Errors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 1)
	verr, ok := errs.Field("width")
	require.True(t, ok)
	assert.Equal(t, "Width must be a whole number", verr.Message)
}

func TestValidate_CollectsEveryFailure(t *testing.T) {
	_, err := Validate(containerRules(), Values{"width": "0", "depth": "-2", "height": "1.5"})
	var errs Errors
	require.True(t, errors.As(err, &errs))

	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"containerId", "zone", "width", "depth", "height"}, fields)
	assert.Contains(t, err.Error(), "Container ID is required")
	assert.Contains(t, err.Error(), "Width must be at least 1")
}

func TestValidate_DecimalBoundsAndOptionalFields(t *testing.T) {
	rules := []*Rule{
		Decimal("mass", "Mass").Required().Min(0),
		Int("priority", "Priority").Required().Min(1).Max(5),
		Int("usageLimit", "Usage limit").Min(0),
		Date("expiryDate", "Expiry date"),
	}

	res, err := Validate(rules, Values{"mass": "2.50", "priority": "5"})
	require.NoError(t, err)
	assert.Equal(t, 2.5, res.Float("mass"))
	assert.True(t, res.Decimal("mass").Equal(res.Decimal("mass").Round(2)))
	assert.Nil(t, res.IntPtr("usageLimit"))
	assert.False(t, res.Has("expiryDate"))

	_, err = Validate(rules, Values{"mass": "-0.1", "priority": "6", "usageLimit": "3", "expiryDate": "2025-13-01"})
	var errs Errors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 3)
	assert.Equal(t, "Mass must be at least 0", errs[0].Message)
	assert.Equal(t, "Priority must be at most 5", errs[1].Message)
	assert.Equal(t, "expiryDate", errs[2].Field)

	res, err = Validate(rules, Values{"mass": "1", "priority": "1", "usageLimit": "0"})
	require.NoError(t, err)
	require.NotNil(t, res.IntPtr("usageLimit"))
	assert.Equal(t, 0, *res.IntPtr("usageLimit"))
}

func TestValidate_TimestampNormalisesToSeconds(t *testing.T) {
	rules := []*Rule{Timestamp("toTimestamp", "Target time").Required()}

	tests := []struct {
		in   string
		want string
	}{
		{"2025-03-01T08:30:00", "2025-03-01T08:30:00"},
		{"2025-03-01T08:30", "2025-03-01T08:30:00"},
		{"2025-03-01 08:30:15", "2025-03-01T08:30:15"},
	}
	for _, tt := range tests {
		res, err := Validate(rules, Values{"toTimestamp": tt.in})
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, res.String("toTimestamp"))
	}

	_, err := Validate(rules, Values{"toTimestamp": "tomorrow"})
	require.Error(t, err)
}
