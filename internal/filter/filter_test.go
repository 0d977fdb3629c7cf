package filter

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cargodash/internal/cargo"
)

func intPtr(v int) *int { return &v }

func sampleItems() []cargo.Item {
	return []cargo.Item{
		{ItemID: "I1", Name: "Food Kit", Width: 10, Depth: 10, Height: 10, Mass: decimal.NewFromFloat(2.5), Priority: 5, PreferredZone: "Crew", ExpiryDate: "2025-06-01"},
		{ItemID: "I2", Name: "Wrench", Width: 5, Depth: 2, Height: 1, Mass: decimal.NewFromInt(1), Priority: 2, PreferredZone: "Lab", UsageLimit: intPtr(2)},
		{ItemID: "I3", Name: "Oxygen Tank", Width: 30, Depth: 30, Height: 60, Mass: decimal.NewFromInt(40), Priority: 4, PreferredZone: "Lab"},
	}
}

func ids(items []cargo.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ItemID)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		source string
		want   []string
	}{
		{"", []string{"I1", "I2", "I3"}},
		{`priority >= 4 && preferredZone == "Lab"`, []string{"I3"}},
		{`volume > 500`, []string{"I1", "I3"}},
		{`name contains "Kit" || mass < 2`, []string{"I1", "I2"}},
		{`usageLimit != nil && usageLimit < 3`, []string{"I2"}},
		{`expiryDate != ""`, []string{"I1"}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			f, err := Compile(tt.source)
			require.NoError(t, err)
			got, err := f.Apply(sampleItems())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestCompile_RejectsBadExpressions(t *testing.T) {
	for _, source := range []string{`priority >=`, `priority + 1`, `unknownField == 1`} {
		_, err := Compile(source)
		assert.Error(t, err, source)
	}
}

func TestFilter_ZeroValueMatchesEverything(t *testing.T) {
	var f Filter
	assert.True(t, f.Empty())
	ok, err := f.Match(cargo.Item{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFilter_UsageLimitWithoutGuardFailsAtRunTime(t *testing.T) {
	f, err := Compile(`usageLimit < 3`)
	require.NoError(t, err)

	ok, err := f.Match(sampleItems()[1])
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.Apply(sampleItems())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "I1")
}
