package service

import (
	"strconv"
	"time"

	"go-gin-happenings/internal/model"
)

// WeekdayToken 星期的字串代號，"0" 為週日、"6" 為週六（與 time.Weekday 相同）
func WeekdayToken(t time.Time) string {
	return strconv.Itoa(int(t.Weekday()))
}

// PlanRepetitions 依 repeatFor 天數往後掃描，星期符合 repeatIn 的日子各複製一個場次。
// 日期與星期以 loc 的日曆計算；產生的場次不帶重複參數，因此不會再展開。
func PlanRepetitions(parent *model.Happening, repeatFor int, repeatIn []string, loc *time.Location) []*model.Happening {
	if repeatFor <= 0 || len(repeatIn) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	weekdays := make(map[string]struct{}, len(repeatIn))
	for _, token := range repeatIn {
		weekdays[token] = struct{}{}
	}

	startAt := parent.StartAt.In(loc)
	children := make([]*model.Happening, 0)
	for day := 1; day <= repeatFor; day++ {
		candidate := startAt.AddDate(0, 0, day)
		if _, ok := weekdays[WeekdayToken(candidate)]; !ok {
			continue
		}
		children = append(children, &model.Happening{
			FactID:            parent.FactID,
			Title:             parent.Title,
			Detail:            parent.Detail,
			StartAt:           candidate,
			StartSaleAt:       parent.StartSaleAt.In(loc).AddDate(0, 0, day),
			StopSaleAt:        parent.StopSaleAt.In(loc).AddDate(0, 0, day),
			MaxSeats:          parent.MaxSeats,
			MaxSeatsForTicket: parent.MaxSeatsForTicket,
		})
	}
	return children
}
