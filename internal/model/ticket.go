package model

// TicketTotals 某場次所有票券的彙總；票券由售票流程寫入
type TicketTotals struct {
	Tickets int `db:"tickets_count"`
	Seats   int `db:"seats_count"`
}
