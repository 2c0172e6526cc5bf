package dto

import (
	"fieldops/internal/entities"
	"fieldops/pkg/types"
)

type CreateOrderDTO struct {
	OsCode     string  `json:"os_code" validate:"required,min=3,max=32"`
	Client     string  `json:"client" validate:"required,min=3,max=255"`
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftID    uint64  `json:"shift_id" validate:"required,gt=0"`
	CityID     uint64  `json:"city_id" validate:"required,gt=0"`
	Rural      bool    `json:"rural"`
	Note       *string `json:"note,omitempty"`
	ContractID *uint64 `json:"contract_id,omitempty" validate:"omitempty,gt=0"`
}

type UpdateOrderDTO struct {
	Client *string `json:"client,omitempty" validate:"omitempty,min=3,max=255"`
	Note   *string `json:"note,omitempty"`
}

type CloseOrderDTO struct {
	Note string `json:"note,omitempty"`
}

type CancelOrderDTO struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type RescheduleOrderDTO struct {
	Reason  string  `json:"reason" validate:"required,min=3"`
	Date    string  `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftID uint64  `json:"shift_id" validate:"required,gt=0"`
	CityID  *uint64 `json:"city_id,omitempty" validate:"omitempty,gt=0"`
	Rural   *bool   `json:"rural,omitempty"`
}

// OrderDTO is the wire shape. The legacy closed/canceled booleans are
// kept alongside the status enum for existing consumers.
type OrderDTO struct {
	ID          uint64  `json:"id"`
	OsCode      string  `json:"os_code"`
	Client      string  `json:"client"`
	Date        string  `json:"date"`
	ShiftID     uint64  `json:"shift_id"`
	CityID      uint64  `json:"city_id"`
	Rural       bool    `json:"rural"`
	Note        *string `json:"note,omitempty"`
	ContractID  *uint64 `json:"contract_id,omitempty"`
	Status      string  `json:"status"`
	Rescheduled bool    `json:"rescheduled"`
	Closed      bool    `json:"closed"`
	Canceled    bool    `json:"canceled"`
	CreatedAt   string  `json:"created_at"`
}

type RescheduleDTO struct {
	ID         uint64  `json:"id"`
	OrderID    uint64  `json:"order_id"`
	Reason     string  `json:"reason"`
	OldDate    string  `json:"old_date"`
	NewDate    string  `json:"new_date"`
	OldShiftID *uint64 `json:"old_shift_id,omitempty"`
	NewShiftID *uint64 `json:"new_shift_id,omitempty"`
	OldCityID  *uint64 `json:"old_city_id,omitempty"`
	NewCityID  *uint64 `json:"new_city_id,omitempty"`
	UserID     uint64  `json:"user_id"`
	CreatedAt  string  `json:"created_at"`
}

// CreatedOrderDTO reports the new order plus the vacancy picture the
// guards saw, so the UI can refresh its counters without a refetch.
type CreatedOrderDTO struct {
	ID          uint64 `json:"id"`
	Amount      uint   `json:"amount"`
	RuralAmount uint   `json:"rural_amount"`
}

func NewOrderDTO(o *entities.Order) OrderDTO {
	out := OrderDTO{
		ID:          o.ID,
		OsCode:      o.OsCode,
		Client:      o.Client,
		Date:        o.Date.Format(types.DateFormat),
		ShiftID:     o.ShiftID,
		CityID:      o.CityID,
		Rural:       o.Rural,
		Status:      string(o.Status),
		Rescheduled: o.Rescheduled,
		Closed:      o.Status == entities.OrderClosed,
		Canceled:    o.Status == entities.OrderCanceled,
		CreatedAt:   o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if o.Note.Valid {
		out.Note = &o.Note.String
	}
	if o.ContractID.Valid {
		contractID := uint64(o.ContractID.Int64)
		out.ContractID = &contractID
	}
	return out
}

func NewRescheduleDTO(r *entities.Reschedule) RescheduleDTO {
	out := RescheduleDTO{
		ID:        r.ID,
		OrderID:   r.OrderID,
		Reason:    r.Reason,
		OldDate:   r.OldDate.Format(types.DateFormat),
		NewDate:   r.NewDate.Format(types.DateFormat),
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	out.OldShiftID = nullToUint64(r.OldShiftID.Int64, r.OldShiftID.Valid)
	out.NewShiftID = nullToUint64(r.NewShiftID.Int64, r.NewShiftID.Valid)
	out.OldCityID = nullToUint64(r.OldCityID.Int64, r.OldCityID.Valid)
	out.NewCityID = nullToUint64(r.NewCityID.Int64, r.NewCityID.Valid)
	return out
}

func nullToUint64(v int64, valid bool) *uint64 {
	if !valid {
		return nil
	}
	u := uint64(v)
	return &u
}
