package model

import (
	"strconv"
	"time"
)

// Happening 某個 Fact 底下的一個場次
type Happening struct {
	ID                int       `json:"id" db:"id"`
	FactID            int       `json:"fact_id" db:"fact_id" validate:"required"`
	Title             *string   `json:"title,omitempty" db:"title"`
	Detail            *string   `json:"detail,omitempty" db:"detail"`
	StartAt           time.Time `json:"start_at" db:"start_at" validate:"required"`
	StartSaleAt       time.Time `json:"start_sale_at" db:"start_sale_at" validate:"required"`
	StopSaleAt        time.Time `json:"stop_sale_at" db:"stop_sale_at" validate:"required"`
	MaxSeats          int       `json:"max_seats" db:"max_seats" validate:"gte=0"`
	MaxSeatsForTicket int       `json:"max_seats_for_ticket" db:"max_seats_for_ticket" validate:"gte=1"`
	TicketsCount      int       `json:"tickets_count" db:"tickets_count"`
	SeatsCount        int       `json:"seats_count" db:"seats_count"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// IsPersisted 尚未寫入資料庫的場次 ID 為 0
func (h *Happening) IsPersisted() bool {
	return h.ID != 0
}

// Saleable 檢查 now 是否落在售票區間內（含頭尾）
func (h *Happening) Saleable(now time.Time) bool {
	return !now.Before(h.StartSaleAt) && !now.After(h.StopSaleAt)
}

// Code 顯示用識別碼 "<fact_id> - <id>"
func (h *Happening) Code() string {
	return strconv.Itoa(h.FactID) + " - " + strconv.Itoa(h.ID)
}

// CounterTarget 場次座位數的畫面區塊
func (h *Happening) CounterTarget() string {
	return "counter_happening_" + strconv.Itoa(h.ID)
}

// NavTarget 所屬 Fact 導覽列的畫面區塊
func (h *Happening) NavTarget() string {
	return "nav_fact_" + strconv.Itoa(h.FactID)
}

// RemainingSeats 剩餘座位數，不會小於 0
func (h *Happening) RemainingSeats() int {
	if remaining := h.MaxSeats - h.SeatsCount; remaining > 0 {
		return remaining
	}
	return 0
}

// CreateHappeningRequest 建立場次請求；RepeatFor、RepeatIn 只在建立時使用，不會存入資料庫
type CreateHappeningRequest struct {
	FactID            int        `json:"fact_id" validate:"required"`
	Title             *string    `json:"title"`
	Detail            *string    `json:"detail"`
	StartAt           *time.Time `json:"start_at" validate:"required"`
	StartSaleAt       *time.Time `json:"start_sale_at" validate:"required"`
	StopSaleAt        *time.Time `json:"stop_sale_at" validate:"required"`
	MaxSeats          *int       `json:"max_seats" validate:"required,gte=0"`
	MaxSeatsForTicket *int       `json:"max_seats_for_ticket" validate:"required,gte=1"`
	// 往後檢查的天數
	RepeatFor *int `json:"repeat_for" validate:"omitempty,gte=0,lte=366"`
	// 要複製到的星期，"0"(週日) ~ "6"(週六)
	RepeatIn []string `json:"repeat_in" validate:"omitempty,dive,oneof=0 1 2 3 4 5 6"`
}

// ApplyDefaults 未指定 max_seats_for_ticket 時預設為 1
func (r *CreateHappeningRequest) ApplyDefaults() {
	if r.MaxSeatsForTicket == nil {
		one := 1
		r.MaxSeatsForTicket = &one
	}
}

// Happening 轉成要寫入的場次，呼叫前需先通過驗證
func (r *CreateHappeningRequest) Happening() *Happening {
	h := &Happening{
		FactID: r.FactID,
		Title:  r.Title,
		Detail: r.Detail,
	}
	if r.StartAt != nil {
		h.StartAt = *r.StartAt
	}
	if r.StartSaleAt != nil {
		h.StartSaleAt = *r.StartSaleAt
	}
	if r.StopSaleAt != nil {
		h.StopSaleAt = *r.StopSaleAt
	}
	if r.MaxSeats != nil {
		h.MaxSeats = *r.MaxSeats
	}
	if r.MaxSeatsForTicket != nil {
		h.MaxSeatsForTicket = *r.MaxSeatsForTicket
	}
	return h
}

// RepeatDays RepeatFor 未指定時為 0
func (r *CreateHappeningRequest) RepeatDays() int {
	if r.RepeatFor == nil {
		return 0
	}
	return *r.RepeatFor
}

type UpdateHappeningParams struct {
	Title             *string    `json:"title"`
	Detail            *string    `json:"detail"`
	StartAt           *time.Time `json:"start_at"`
	StartSaleAt       *time.Time `json:"start_sale_at"`
	StopSaleAt        *time.Time `json:"stop_sale_at"`
	MaxSeats          *int       `json:"max_seats" validate:"omitempty,gte=0"`
	MaxSeatsForTicket *int       `json:"max_seats_for_ticket" validate:"omitempty,gte=1"`
}

func (p UpdateHappeningParams) IsEmpty() bool {
	return p.Title == nil && p.Detail == nil && p.StartAt == nil && p.StartSaleAt == nil &&
		p.StopSaleAt == nil && p.MaxSeats == nil && p.MaxSeatsForTicket == nil
}

// HappeningResponse 場次響應
type HappeningResponse struct {
	*Happening
	Code     string `json:"code"`
	Saleable bool   `json:"saleable"`
}

func NewHappeningResponse(h *Happening, now time.Time) HappeningResponse {
	return HappeningResponse{
		Happening: h,
		Code:      h.Code(),
		Saleable:  h.Saleable(now),
	}
}

// SeatAvailability 座位彙總，優先從快取讀取
type SeatAvailability struct {
	HappeningID  int `json:"happening_id"`
	MaxSeats     int `json:"max_seats"`
	SeatsCount   int `json:"seats_count"`
	TicketsCount int `json:"tickets_count"`
	Remaining    int `json:"remaining"`
}

func NewSeatAvailability(h *Happening) SeatAvailability {
	return SeatAvailability{
		HappeningID:  h.ID,
		MaxSeats:     h.MaxSeats,
		SeatsCount:   h.SeatsCount,
		TicketsCount: h.TicketsCount,
		Remaining:    h.RemainingSeats(),
	}
}
