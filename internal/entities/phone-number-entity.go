package entities

import (
	"github.com/aarondl/null/v8"

	"fieldops/pkg/types"
)

// PhoneNumberStatus replaces the legacy alocated/reserved boolean pair.
// Reserved and allocated both require the number to be active.
type PhoneNumberStatus string

const (
	PhoneAvailable PhoneNumberStatus = "available"
	PhoneReserved  PhoneNumberStatus = "reserved"
	PhoneAllocated PhoneNumberStatus = "alocated"
)

type PhoneNumber struct {
	ID     uint64 `json:"id"`
	DDD    string `json:"ddd"`
	Prefix string `json:"prefix"`
	Sufix  int    `json:"sufix"`
	// Number is the full dialable string, unique across the pool.
	Number      string            `json:"number"`
	CityID      uint64            `json:"city_id"`
	Gold        bool              `json:"gold"`
	Portability bool              `json:"portability"`
	Active      bool              `json:"active"`
	Status      PhoneNumberStatus `json:"status"`

	ReservedUntil     null.Time  `json:"reserved_until"`
	ContractID        null.Int64 `json:"contract_id"`
	AllocationUserID  null.Int64 `json:"allocation_user_id"`
	ReservationUserID null.Int64 `json:"reservation_user_id"`

	types.BaseEntity
}

func (p *PhoneNumber) Allocated() bool { return p.Status == PhoneAllocated }
func (p *PhoneNumber) Reserved() bool  { return p.Status == PhoneReserved }

// Bindable reports whether the number can enter a bind batch, with the
// specific blocking reason when it cannot.
func (p *PhoneNumber) Bindable() (bool, string) {
	switch {
	case !p.Active:
		return false, "number is inactive"
	case p.Allocated():
		return false, "number is already allocated"
	case p.Reserved():
		return false, "number is reserved"
	}
	return true, ""
}
