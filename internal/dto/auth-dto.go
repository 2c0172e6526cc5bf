package dto

type LoginDTO struct {
	Login    string `json:"login" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type ProfileDTO struct {
	ID     uint64 `json:"id"`
	Fio    string `json:"fio"`
	Email  string `json:"email"`
	RoleID uint64 `json:"role_id"`
	CityID uint64 `json:"city_id"`
}
