package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fieldops/internal/entities"
	"fieldops/internal/infrastructure/db"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/types"
)

const (
	shiftCityTable = "shift_cities"
	shiftCityJoinFields = `sc.id, sc.shift_id, sc.city_id, sc.vacancies, sc.rural_vacancies,
		s.name AS shift_name, c.name AS city_name, sc.created_at, sc.updated_at`
)

// whitelist for list filtering and sorting
var allowedShiftCityFilters = map[string]string{
	"id":       "sc.id",
	"shift_id": "sc.shift_id",
	"city_id":  "sc.city_id",
}

type ShiftCityRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.ShiftCityPool, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.ShiftCityPool, error)
	GetByCity(ctx context.Context, cityID uint64) ([]entities.ShiftCityPool, error)
	FindByShiftAndCity(ctx context.Context, shiftID, cityID uint64) (*entities.ShiftCityPool, error)
	UpsertCities(ctx context.Context, tx pgx.Tx, shiftID uint64, rows []entities.ShiftCityPool) error
	AdjustVacancies(ctx context.Context, id uint64, vacancyDelta, ruralDelta int) (*entities.ShiftCityPool, error)
}

type ShiftCityRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewShiftCityRepository(storage *pgxpool.Pool, logger *zap.Logger) ShiftCityRepositoryInterface {
	return &ShiftCityRepository{storage: storage, logger: logger}
}

func (r *ShiftCityRepository) baseSelect() sq.SelectBuilder {
	return sq.Select(shiftCityJoinFields).
		From(shiftCityTable + " sc").
		Join("shifts s ON s.id = sc.shift_id").
		Join("cities c ON c.id = sc.city_id").
		PlaceholderFormat(sq.Dollar)
}

func (r *ShiftCityRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.ShiftCityPool, uint64, error) {
	countBuilder := sq.Select("COUNT(*)").From(shiftCityTable + " sc").PlaceholderFormat(sq.Dollar)
	countBuilder = db.ApplyListParams(countBuilder, types.Filter{Filter: filter.Filter}, allowedShiftCityFilters)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shift city pools: %w", err)
	}

	builder := db.ApplyListParams(r.baseSelect(), filter, allowedShiftCityFilters)
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	pools, err := scanPools(rows)
	if err != nil {
		return nil, 0, err
	}
	return pools, total, nil
}

func (r *ShiftCityRepository) FindByID(ctx context.Context, id uint64) (*entities.ShiftCityPool, error) {
	query, args, err := r.baseSelect().Where(sq.Eq{"sc.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryOne(ctx, query, args...)
}

func (r *ShiftCityRepository) FindByShiftAndCity(ctx context.Context, shiftID, cityID uint64) (*entities.ShiftCityPool, error) {
	query, args, err := r.baseSelect().
		Where(sq.Eq{"sc.shift_id": shiftID, "sc.city_id": cityID}).ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryOne(ctx, query, args...)
}

func (r *ShiftCityRepository) GetByCity(ctx context.Context, cityID uint64) ([]entities.ShiftCityPool, error) {
	query, args, err := r.baseSelect().
		Where(sq.Eq{"sc.city_id": cityID}).
		OrderBy("sc.shift_id").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPools(rows)
}

// UpsertCities replaces the configured capacity of a shift for the given
// cities in one administrator action.
func (r *ShiftCityRepository) UpsertCities(ctx context.Context, tx pgx.Tx, shiftID uint64, pools []entities.ShiftCityPool) error {
	query := `
		INSERT INTO shift_cities (shift_id, city_id, vacancies, rural_vacancies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (shift_id, city_id)
		DO UPDATE SET vacancies = EXCLUDED.vacancies,
			rural_vacancies = EXCLUDED.rural_vacancies,
			updated_at = NOW()`

	for _, p := range pools {
		if _, err := tx.Exec(ctx, query, shiftID, p.CityID, p.Vacancies, p.RuralVacancies); err != nil {
			return fmt.Errorf("upsert shift city row: %w", err)
		}
	}
	return nil
}

// AdjustVacancies applies an increment or decrement to the configured
// counts, flooring at zero.
func (r *ShiftCityRepository) AdjustVacancies(ctx context.Context, id uint64, vacancyDelta, ruralDelta int) (*entities.ShiftCityPool, error) {
	query := `
		UPDATE shift_cities SET
			vacancies = GREATEST(0, vacancies::int + $2),
			rural_vacancies = GREATEST(0, rural_vacancies::int + $3),
			updated_at = NOW()
		WHERE id = $1`
	tag, err := r.storage.Exec(ctx, query, id, vacancyDelta, ruralDelta)
	if err != nil {
		return nil, fmt.Errorf("adjust vacancies: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *ShiftCityRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*entities.ShiftCityPool, error) {
	var p entities.ShiftCityPool
	err := r.storage.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.ShiftID, &p.CityID, &p.Vacancies, &p.RuralVacancies,
		&p.ShiftName, &p.CityName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanPools(rows pgx.Rows) ([]entities.ShiftCityPool, error) {
	pools := make([]entities.ShiftCityPool, 0)
	for rows.Next() {
		var p entities.ShiftCityPool
		if err := rows.Scan(
			&p.ID, &p.ShiftID, &p.CityID, &p.Vacancies, &p.RuralVacancies,
			&p.ShiftName, &p.CityName, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan shift city pool: %w", err)
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}
