package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fieldops/internal/entities"
	apperrors "fieldops/pkg/errors"
)

const (
	userTable  = "users"
	userFields = "id, fio, email, password, role_id, city_id, active, created_at, updated_at"
)

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	return r.findBy(ctx, "id = $1", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findBy(ctx, "email = $1", email)
}

func (r *UserRepository) findBy(ctx context.Context, cond string, arg interface{}) (*entities.User, error) {
	query := "SELECT " + userFields + " FROM " + userTable + " WHERE " + cond
	var u entities.User
	err := r.storage.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Fio, &u.Email, &u.Password, &u.RoleID, &u.CityID, &u.Active,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
