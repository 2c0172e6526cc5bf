package entities

import "fieldops/pkg/types"

type Shift struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`

	types.BaseEntity
}

type City struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	UF   string `json:"uf"`

	types.BaseEntity
}

// ShiftCityPool is the configured capacity of a shift within a city.
// The configuration is shared by all dates; consumption is computed per
// date from the active orders.
type ShiftCityPool struct {
	ID             uint64 `json:"id"`
	ShiftID        uint64 `json:"shift_id"`
	CityID         uint64 `json:"city_id"`
	Vacancies      uint   `json:"vacancies"`
	RuralVacancies uint   `json:"rural_vacancies"`
	ShiftName      string `json:"shift_name,omitempty"`
	CityName       string `json:"city_name,omitempty"`

	types.BaseEntity
}
