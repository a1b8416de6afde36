package service

import (
	"testing"
	"time"
	_ "time/tzdata"

	"go-gin-happenings/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 為週一
func mondayParent() *model.Happening {
	start := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	title := "Jazz night"
	return &model.Happening{
		ID:                1,
		FactID:            9,
		Title:             &title,
		StartAt:           start,
		StartSaleAt:       start.AddDate(0, 0, -7),
		StopSaleAt:        start.Add(-2 * time.Hour),
		MaxSeats:          80,
		MaxSeatsForTicket: 4,
	}
}

func TestWeekdayToken(t *testing.T) {
	assert.Equal(t, "0", WeekdayToken(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1", WeekdayToken(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "6", WeekdayToken(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)))
}

func TestPlanRepetitions(t *testing.T) {
	t.Run("Success - monday and wednesday within a week", func(t *testing.T) {
		parent := mondayParent()

		children := PlanRepetitions(parent, 7, []string{"1", "3"}, time.UTC)

		require.Len(t, children, 2)
		assert.Equal(t, time.Date(2024, 1, 3, 20, 0, 0, 0, time.UTC), children[0].StartAt)
		assert.Equal(t, time.Date(2024, 1, 8, 20, 0, 0, 0, time.UTC), children[1].StartAt)
	})

	t.Run("Success - children shift every timestamp by the offset", func(t *testing.T) {
		parent := mondayParent()

		children := PlanRepetitions(parent, 7, []string{"3"}, time.UTC)

		require.Len(t, children, 1)
		child := children[0]
		assert.True(t, parent.StartAt.AddDate(0, 0, 2).Equal(child.StartAt))
		assert.True(t, parent.StartSaleAt.AddDate(0, 0, 2).Equal(child.StartSaleAt))
		assert.True(t, parent.StopSaleAt.AddDate(0, 0, 2).Equal(child.StopSaleAt))
		assert.Equal(t, parent.FactID, child.FactID)
		assert.Equal(t, parent.Title, child.Title)
		assert.Equal(t, parent.MaxSeats, child.MaxSeats)
		assert.Equal(t, parent.MaxSeatsForTicket, child.MaxSeatsForTicket)
		assert.Zero(t, child.ID)
		assert.Zero(t, child.SeatsCount)
	})

	t.Run("Success - zero days", func(t *testing.T) {
		assert.Empty(t, PlanRepetitions(mondayParent(), 0, []string{"1", "2", "3"}, time.UTC))
	})

	t.Run("Success - empty weekdays", func(t *testing.T) {
		assert.Empty(t, PlanRepetitions(mondayParent(), 30, nil, time.UTC))
	})

	t.Run("Success - count matches weekday occurrences", func(t *testing.T) {
		parent := mondayParent()
		repeatIn := []string{"0", "6"}

		for _, days := range []int{1, 5, 6, 13, 30, 365} {
			expected := 0
			for d := 1; d <= days; d++ {
				wd := parent.StartAt.AddDate(0, 0, d).Weekday()
				if wd == time.Sunday || wd == time.Saturday {
					expected++
				}
			}

			children := PlanRepetitions(parent, days, repeatIn, time.UTC)

			assert.Len(t, children, expected, "days=%d", days)
		}
	})

	t.Run("Success - every day", func(t *testing.T) {
		children := PlanRepetitions(mondayParent(), 10, []string{"0", "1", "2", "3", "4", "5", "6"}, time.UTC)

		assert.Len(t, children, 10)
	})

	t.Run("Success - weekday follows the application time zone", func(t *testing.T) {
		taipei, err := time.LoadLocation("Asia/Taipei")
		require.NoError(t, err)
		// UTC 週一 20:00 = 台北週二 04:00
		parent := mondayParent()

		utcChildren := PlanRepetitions(parent, 1, []string{"2"}, time.UTC)
		taipeiChildren := PlanRepetitions(parent, 1, []string{"3"}, taipei)

		require.Len(t, utcChildren, 1)
		require.Len(t, taipeiChildren, 1)
		assert.True(t, utcChildren[0].StartAt.Equal(taipeiChildren[0].StartAt))
	})

	t.Run("Success - calendar days across daylight saving change", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		// 2024-03-10 美東進入夏令時間
		start := time.Date(2024, 3, 9, 19, 0, 0, 0, ny)
		parent := &model.Happening{FactID: 1, StartAt: start, StartSaleAt: start, StopSaleAt: start, MaxSeatsForTicket: 1}

		children := PlanRepetitions(parent, 2, []string{"1"}, ny)

		require.Len(t, children, 1)
		assert.Equal(t, 19, children[0].StartAt.In(ny).Hour())
	})
}
