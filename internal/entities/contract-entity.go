package entities

import "fieldops/pkg/types"

// Contract is the originating system record an order or phone number is
// bound to. SystemClosed is owned by the upstream system; scheduling
// against a closed contract needs an explicit override.
type Contract struct {
	ID           uint64 `json:"id"`
	Code         string `json:"code"`
	Client       string `json:"client"`
	CityID       uint64 `json:"city_id"`
	SystemClosed bool   `json:"system_closed"`

	types.BaseEntity
}
