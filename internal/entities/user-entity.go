package entities

import "fieldops/pkg/types"

type User struct {
	ID       uint64 `json:"id"`
	Fio      string `json:"fio"`
	Email    string `json:"email"`
	Password string `json:"-"`
	RoleID   uint64 `json:"role_id"`
	CityID   uint64 `json:"city_id"`
	Active   bool   `json:"active"`

	types.BaseEntity
}
