package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops/internal/entities"
	apperrors "fieldops/pkg/errors"
)

type ContractRepositoryInterface interface {
	FindByID(ctx context.Context, id uint64) (*entities.Contract, error)
}

type ContractRepository struct {
	storage *pgxpool.Pool
}

func NewContractRepository(storage *pgxpool.Pool) ContractRepositoryInterface {
	return &ContractRepository{storage: storage}
}

func (r *ContractRepository) FindByID(ctx context.Context, id uint64) (*entities.Contract, error) {
	query := `SELECT id, code, client, city_id, system_closed, created_at, updated_at
		FROM contracts WHERE id = $1`
	var c entities.Contract
	err := r.storage.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Code, &c.Client, &c.CityID, &c.SystemClosed, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
