package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"fieldops/pkg/types"
)

// OrderStatus is the order's lifecycle state. Closed and canceled are
// terminal; rescheduled is tracked separately because it is history, not
// state.
type OrderStatus string

const (
	OrderScheduled OrderStatus = "scheduled"
	OrderClosed    OrderStatus = "closed"
	OrderCanceled  OrderStatus = "canceled"
)

type Order struct {
	ID          uint64      `json:"id"`
	OsCode      string      `json:"os_code"`
	Client      string      `json:"client"`
	Date        time.Time   `json:"-"`
	ShiftID     uint64      `json:"shift_id"`
	CityID      uint64      `json:"city_id"`
	Rural       bool        `json:"rural"`
	Note        null.String `json:"note"`
	ContractID  null.Int64  `json:"contract_id"`
	Status      OrderStatus `json:"status"`
	Rescheduled bool        `json:"rescheduled"`

	CreatedBy    uint64      `json:"created_by"`
	ClosedBy     null.Int64  `json:"closed_by"`
	ClosedAt     null.Time   `json:"closed_at"`
	ClosingNote  null.String `json:"closing_note"`
	CanceledBy   null.Int64  `json:"canceled_by"`
	CanceledAt   null.Time   `json:"canceled_at"`
	CancelReason null.String `json:"cancel_reason"`

	types.BaseEntity
}

// Terminal reports whether the order accepts no further transitions.
func (o *Order) Terminal() bool {
	return o.Status == OrderClosed || o.Status == OrderCanceled
}

// Active reports whether the order consumes a vacancy.
func (o *Order) Active() bool {
	return o.Status != OrderCanceled
}

// Reschedule is an append-only audit record, one per reschedule action.
type Reschedule struct {
	ID         uint64     `json:"id"`
	OrderID    uint64     `json:"order_id"`
	Reason     string     `json:"reason"`
	OldDate    time.Time  `json:"-"`
	NewDate    time.Time  `json:"-"`
	OldShiftID null.Int64 `json:"old_shift_id"`
	NewShiftID null.Int64 `json:"new_shift_id"`
	OldCityID  null.Int64 `json:"old_city_id"`
	NewCityID  null.Int64 `json:"new_city_id"`
	UserID     uint64     `json:"user_id"`
	CreatedAt  time.Time  `json:"created_at"`
}
