package dto

import "fieldops/internal/entities"

type ShiftCityPoolDTO struct {
	ID             uint64 `json:"id"`
	ShiftID        uint64 `json:"shift_id"`
	CityID         uint64 `json:"city_id"`
	ShiftName      string `json:"shift_name,omitempty"`
	CityName       string `json:"city_name,omitempty"`
	Vacancies      uint   `json:"vacancies"`
	RuralVacancies uint   `json:"rural_vacancies"`
}

// PoolVacancyDTO is a pool with its effective remaining capacity for a
// specific date.
type PoolVacancyDTO struct {
	ShiftCityPoolDTO
	Date        string `json:"date"`
	Amount      uint   `json:"amount"`
	RuralAmount uint   `json:"rural_amount"`
}

type ShiftCityRowDTO struct {
	CityID         uint64 `json:"city_id" validate:"required,gt=0"`
	Vacancies      uint   `json:"vacancies"`
	RuralVacancies uint   `json:"rural_vacancies"`
}

type UpdateCitiesDTO struct {
	Rows []ShiftCityRowDTO `json:"rows" validate:"required,min=1,dive"`
}

type AdjustVacanciesDTO struct {
	VacancyDelta int `json:"vacancy_delta"`
	RuralDelta   int `json:"rural_delta"`
}

type FreeVacancyDTO struct {
	Date        string `json:"date"`
	Amount      uint   `json:"amount"`
	RuralAmount uint   `json:"rural_amount"`
}

// EligibilityDTO is the schedule-gate verdict for a requested slot. The
// rural fallback is a suggestion only; the caller decides whether to
// present it.
type EligibilityDTO struct {
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason,omitempty"`
	SuggestRural bool   `json:"suggest_rural"`
	Amount       uint   `json:"amount"`
	RuralAmount  uint   `json:"rural_amount"`
}

func NewShiftCityPoolDTO(p *entities.ShiftCityPool) ShiftCityPoolDTO {
	return ShiftCityPoolDTO{
		ID:             p.ID,
		ShiftID:        p.ShiftID,
		CityID:         p.CityID,
		ShiftName:      p.ShiftName,
		CityName:       p.CityName,
		Vacancies:      p.Vacancies,
		RuralVacancies: p.RuralVacancies,
	}
}
