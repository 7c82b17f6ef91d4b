package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		hour    int
		minute  int
		wantErr bool
	}{
		{value: "00:00", hour: 0, minute: 0},
		{value: "09:30", hour: 9, minute: 30},
		{value: "23:59", hour: 23, minute: 59},
		{value: "9:05", hour: 9, minute: 5},
		{value: "24:00", wantErr: true},
		{value: "12:60", wantErr: true},
		{value: "12-30", wantErr: true},
		{value: "noon", wantErr: true},
		{value: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			hour, minute, err := ParseTimeOfDay(tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.hour, hour)
			assert.Equal(t, tc.minute, minute)
		})
	}
}

func TestComputeTargetInvariants(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 9, 30, 42, 123, time.UTC)
	tests := []struct {
		name    string
		hour    int
		minute  int
		wantDay int
	}{
		{name: "later today", hour: 10, minute: 0, wantDay: 1},
		{name: "already past rolls to tomorrow", hour: 9, minute: 0, wantDay: 2},
		{name: "same minute counts as past due to seconds", hour: 9, minute: 30, wantDay: 2},
		{name: "midnight tomorrow", hour: 0, minute: 0, wantDay: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := ScheduledSource{Name: "cam", Hour: tc.hour, Minute: tc.minute}
			target := src.ComputeTarget(now)

			assert.False(t, target.Before(now), "target must be >= now")
			assert.Equal(t, tc.wantDay, target.Day())
			assert.Equal(t, tc.hour, target.Hour())
			assert.Equal(t, tc.minute, target.Minute())
			assert.Zero(t, target.Second())
			assert.Zero(t, target.Nanosecond())
			assert.Equal(t, target, src.Target)
		})
	}
}

// A 09:30 seconds-free now combined with a 09:30 trigger is exactly now and
// must stay on the same day.
func TestComputeTargetExactNowStaysToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	src := ScheduledSource{Hour: 9, Minute: 30}
	assert.Equal(t, now, src.ComputeTarget(now))
}

// Recomputation with a later now starts from scratch rather than adding
// another day.
func TestComputeTargetIdempotentRecompute(t *testing.T) {
	t.Parallel()

	src := ScheduledSource{Hour: 8, Minute: 0}
	first := src.ComputeTarget(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, first.Day())

	second := src.ComputeTarget(time.Date(2024, 5, 2, 7, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, second.Day(), "recompute must not accumulate extra days")
}

func TestDisplayForm(t *testing.T) {
	t.Parallel()

	src := ScheduledSource{Name: "pier-north", Hour: 9, Minute: 5}
	assert.Equal(t, "0905-pier-north", src.DisplayForm())
}

func TestExpandPreservesEnumerationOrder(t *testing.T) {
	t.Parallel()

	defs := []SourceDefinition{
		{Name: "a", URL: "https://a", Crop: CropBox{0, 0, 10, 10}, Times: []string{"10:00", "11:00"}},
		{Name: "b", URL: "https://b", Crop: CropBox{0, 0, 10, 10}, Times: []string{"09:00"}},
	}
	items, err := Expand(defs)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "1000-a", items[0].DisplayForm())
	assert.Equal(t, "1100-a", items[1].DisplayForm())
	assert.Equal(t, "0900-b", items[2].DisplayForm())
}

func TestExpandRejectsBadTime(t *testing.T) {
	t.Parallel()

	defs := []SourceDefinition{
		{Name: "a", URL: "https://a", Times: []string{"25:00"}},
	}
	_, err := Expand(defs)
	assert.ErrorContains(t, err, "source a")
}

// With now at 09:30 UTC, a 10:00 trigger resolves to today and a 09:00
// trigger to tomorrow, so the 10:00 source runs first despite the later
// time of day.
func TestOrderScheduleByAbsoluteInstant(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	items := []ScheduledSource{
		{Name: "early", Hour: 9, Minute: 0},
		{Name: "late", Hour: 10, Minute: 0},
	}
	for i := range items {
		items[i].ComputeTarget(now)
	}
	OrderSchedule(items)

	require.Equal(t, "late", items[0].Name)
	require.Equal(t, "early", items[1].Name)
	assert.Equal(t, 1, items[0].Target.Day())
	assert.Equal(t, 2, items[1].Target.Day())
}

func TestOrderScheduleStableOnTies(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	items := []ScheduledSource{
		{Name: "first", Hour: 12, Minute: 0},
		{Name: "second", Hour: 12, Minute: 0},
		{Name: "third", Hour: 12, Minute: 0},
	}
	for i := range items {
		items[i].ComputeTarget(now)
	}
	OrderSchedule(items)

	assert.Equal(t, "first", items[0].Name)
	assert.Equal(t, "second", items[1].Name)
	assert.Equal(t, "third", items[2].Name)
}

func TestOrderScheduleNonDecreasing(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 13, 45, 0, 0, time.UTC)
	times := []string{"06:15", "22:00", "13:44", "13:46", "00:30", "18:00"}
	defs := []SourceDefinition{{Name: "cam", URL: "https://cam", Crop: CropBox{0, 0, 1, 1}, Times: times}}
	items, err := Expand(defs)
	require.NoError(t, err)
	for i := range items {
		items[i].ComputeTarget(now)
	}
	OrderSchedule(items)

	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].Target.Before(items[i-1].Target),
			"targets must be non-decreasing at index %d", i)
	}
}

func TestCropBoxValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CropBox{Left: 0, Top: 0, Right: 10, Bottom: 10}.Validate())
	assert.Error(t, CropBox{Left: 10, Top: 0, Right: 10, Bottom: 10}.Validate())
	assert.Error(t, CropBox{Left: 0, Top: 20, Right: 10, Bottom: 10}.Validate())
	assert.Error(t, CropBox{Left: -1, Top: 0, Right: 10, Bottom: 10}.Validate())
}
