package dto

import (
	"fieldops/internal/entities"
	"fieldops/pkg/types"
)

type CreatePhoneNumberDTO struct {
	DDD         string `json:"ddd" validate:"required,len=2,numeric"`
	Prefix      string `json:"prefix" validate:"required,min=4,max=5,numeric"`
	Sufix       int    `json:"sufix" validate:"gte=0,lte=9999"`
	CityID      uint64 `json:"city_id" validate:"required,gt=0"`
	Gold        bool   `json:"gold"`
	Portability bool   `json:"portability"`
}

type CreatePhoneNumberRangeDTO struct {
	DDD         string `json:"ddd" validate:"required,len=2,numeric"`
	Prefix      string `json:"prefix" validate:"required,min=4,max=5,numeric"`
	Sufix       int    `json:"sufix" validate:"gte=0,lte=9999"`
	SufixEnd    int    `json:"sufix_end" validate:"required,gt=0,lte=10000"`
	CityID      uint64 `json:"city_id" validate:"required,gt=0"`
	Portability bool   `json:"portability"`
}

type BindPhoneNumbersDTO struct {
	ContractID uint64   `json:"contract_id" validate:"required,gt=0"`
	NumberIDs  []uint64 `json:"number_ids" validate:"required,min=1,dive,gt=0"`
}

type ReservePhoneNumberDTO struct {
	Days int `json:"days" validate:"required,gte=1"`
}

// PhoneNumberDTO keeps the legacy alocated/reserved booleans on the
// wire next to the status value.
type PhoneNumberDTO struct {
	ID            uint64  `json:"id"`
	DDD           string  `json:"ddd"`
	Prefix        string  `json:"prefix"`
	Sufix         int     `json:"sufix"`
	Number        string  `json:"number"`
	CityID        uint64  `json:"city_id"`
	Gold          bool    `json:"gold"`
	Portability   bool    `json:"portability"`
	Active        bool    `json:"active"`
	Status        string  `json:"status"`
	Alocated      bool    `json:"alocated"`
	Reserved      bool    `json:"reserved"`
	ReservedUntil *string `json:"reserved_until,omitempty"`
	ContractID    *uint64 `json:"contract_id,omitempty"`
}

// RangeCreatedDTO reports how many numbers a range provisioning call
// produced.
type RangeCreatedDTO struct {
	Created int64 `json:"created"`
}

type BatchBoundDTO struct {
	ContractID uint64 `json:"contract_id"`
	Bound      int    `json:"bound"`
}

type ReleasedExpiredDTO struct {
	Released int64 `json:"released"`
}

func NewPhoneNumberDTO(p *entities.PhoneNumber) PhoneNumberDTO {
	out := PhoneNumberDTO{
		ID:          p.ID,
		DDD:         p.DDD,
		Prefix:      p.Prefix,
		Sufix:       p.Sufix,
		Number:      p.Number,
		CityID:      p.CityID,
		Gold:        p.Gold,
		Portability: p.Portability,
		Active:      p.Active,
		Status:      string(p.Status),
		Alocated:    p.Allocated(),
		Reserved:    p.Reserved(),
	}
	if p.ReservedUntil.Valid {
		until := p.ReservedUntil.Time.Format(types.DateFormat)
		out.ReservedUntil = &until
	}
	if p.ContractID.Valid {
		contractID := uint64(p.ContractID.Int64)
		out.ContractID = &contractID
	}
	return out
}
