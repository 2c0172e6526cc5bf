package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	phoneNumberTable  = "phone_numbers"
	phoneNumberFields = `id, ddd, prefix, sufix, number, city_id, gold, portability, active,
		status, reserved_until, contract_id, allocation_user_id, reservation_user_id,
		created_at, updated_at`
)

var allowedPhoneNumberFilters = map[string]string{
	"id":          "id",
	"ddd":         "ddd",
	"prefix":      "prefix",
	"city_id":     "city_id",
	"gold":        "gold",
	"portability": "portability",
	"active":      "active",
	"status":      "status",
	"contract_id": "contract_id",
}

type PhoneNumberRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.PhoneNumber, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.PhoneNumber, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]entities.PhoneNumber, error)
	Create(ctx context.Context, number *entities.PhoneNumber) (uint64, error)
	CreateRange(ctx context.Context, base *entities.PhoneNumber, sufixEnd int) (int64, error)
	BindMultipleInTx(ctx context.Context, tx pgx.Tx, contractID uint64, ids []uint64, userID uint64) error
	Unbind(ctx context.Context, id uint64) error
	Reserve(ctx context.Context, id, userID uint64, until time.Time) error
	Release(ctx context.Context, id uint64) error
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)
}

type PhoneNumberRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewPhoneNumberRepository(storage *pgxpool.Pool, logger *zap.Logger) PhoneNumberRepositoryInterface {
	return &PhoneNumberRepository{storage: storage, logger: logger}
}

func (r *PhoneNumberRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.PhoneNumber, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			return b.Where(sq.ILike{"number": "%" + filter.Search + "%"})
		}
		return b
	}

	countBuilder := sq.Select("COUNT(*)").From(phoneNumberTable).PlaceholderFormat(sq.Dollar)
	countBuilder = applySearch(db.ApplyListParams(countBuilder, types.Filter{Filter: filter.Filter}, allowedPhoneNumberFilters))
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count phone numbers: %w", err)
	}

	builder := sq.Select(phoneNumberFields).From(phoneNumberTable).PlaceholderFormat(sq.Dollar)
	builder = applySearch(db.ApplyListParams(builder, filter, allowedPhoneNumberFilters))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("number")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list phone numbers: %w", err)
	}
	defer rows.Close()

	numbers, err := scanPhoneNumbers(rows)
	if err != nil {
		return nil, 0, err
	}
	return numbers, total, nil
}

func (r *PhoneNumberRepository) FindByID(ctx context.Context, id uint64) (*entities.PhoneNumber, error) {
	query := "SELECT " + phoneNumberFields + " FROM " + phoneNumberTable + " WHERE id = $1"
	var p entities.PhoneNumber
	err := r.storage.QueryRow(ctx, query, id).Scan(phoneNumberScanTargets(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PhoneNumberRepository) FindByIDs(ctx context.Context, ids []uint64) ([]entities.PhoneNumber, error) {
	query := "SELECT " + phoneNumberFields + " FROM " + phoneNumberTable + " WHERE id = ANY($1) ORDER BY number"
	rows, err := r.storage.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find phone numbers by ids: %w", err)
	}
	defer rows.Close()

	return scanPhoneNumbers(rows)
}

func (r *PhoneNumberRepository) Create(ctx context.Context, number *entities.PhoneNumber) (uint64, error) {
	query := `
		INSERT INTO phone_numbers (ddd, prefix, sufix, number, city_id, gold, portability,
			active, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8, NOW(), NOW())
		RETURNING id`

	var id uint64
	err := r.storage.QueryRow(ctx, query,
		number.DDD, number.Prefix, number.Sufix, number.Number, number.CityID,
		number.Gold, number.Portability, entities.PhoneAvailable,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err, "phone number already exists")
	}
	return id, nil
}

// CreateRange bulk-inserts the contiguous sufix range [base.Sufix,
// sufixEnd). The generated number string follows ddd+prefix+sufix.
func (r *PhoneNumberRepository) CreateRange(ctx context.Context, base *entities.PhoneNumber, sufixEnd int) (int64, error) {
	query := `
		INSERT INTO phone_numbers (ddd, prefix, sufix, number, city_id, gold, portability,
			active, status, created_at, updated_at)
		SELECT $1, $2, s, $1 || $2 || lpad(s::text, 4, '0'), $3, false, $4,
			true, $5, NOW(), NOW()
		FROM generate_series($6::int, $7::int - 1) AS s`

	tag, err := r.storage.Exec(ctx, query,
		base.DDD, base.Prefix, base.CityID, base.Portability,
		entities.PhoneAvailable, base.Sufix, sufixEnd,
	)
	if err != nil {
		return 0, mapWriteError(err, "a number in the requested range already exists")
	}
	return tag.RowsAffected(), nil
}

// BindMultipleInTx allocates the whole batch to a contract. The status
// guard re-checks availability at write time; any shortfall aborts the
// transaction so the batch stays all-or-nothing.
func (r *PhoneNumberRepository) BindMultipleInTx(ctx context.Context, tx pgx.Tx, contractID uint64, ids []uint64, userID uint64) error {
	query := `
		UPDATE phone_numbers SET status = $1, contract_id = $2, allocation_user_id = $3,
			reserved_until = NULL, reservation_user_id = NULL, updated_at = NOW()
		WHERE id = ANY($4) AND active AND status = $5`

	tag, err := tx.Exec(ctx, query, entities.PhoneAllocated, contractID, userID, ids, entities.PhoneAvailable)
	if err != nil {
		return fmt.Errorf("bind phone numbers: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return apperrors.NewConflict("some numbers were taken while binding; refresh and retry")
	}
	return nil
}

func (r *PhoneNumberRepository) Unbind(ctx context.Context, id uint64) error {
	query := `
		UPDATE phone_numbers SET status = $1, contract_id = NULL, allocation_user_id = NULL,
			updated_at = NOW()
		WHERE id = $2 AND status = $3`

	tag, err := r.storage.Exec(ctx, query, entities.PhoneAvailable, id, entities.PhoneAllocated)
	if err != nil {
		return fmt.Errorf("unbind phone number: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMissedWrite(ctx, id, "not allocated")
	}
	return nil
}

func (r *PhoneNumberRepository) Reserve(ctx context.Context, id, userID uint64, until time.Time) error {
	query := `
		UPDATE phone_numbers SET status = $1, reserved_until = $2, reservation_user_id = $3,
			updated_at = NOW()
		WHERE id = $4 AND active AND status = $5`

	tag, err := r.storage.Exec(ctx, query, entities.PhoneReserved, until, userID, id, entities.PhoneAvailable)
	if err != nil {
		return fmt.Errorf("reserve phone number: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMissedWrite(ctx, id, "not available")
	}
	return nil
}

func (r *PhoneNumberRepository) Release(ctx context.Context, id uint64) error {
	query := `
		UPDATE phone_numbers SET status = $1, reserved_until = NULL, reservation_user_id = NULL,
			updated_at = NOW()
		WHERE id = $2 AND status = $3`

	tag, err := r.storage.Exec(ctx, query, entities.PhoneAvailable, id, entities.PhoneReserved)
	if err != nil {
		return fmt.Errorf("release phone number: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMissedWrite(ctx, id, "not reserved")
	}
	return nil
}

// ReleaseExpired frees reservations whose reserved_until has passed.
// Deletion of expired portability numbers belongs to an upstream sweep,
// not to this service.
func (r *PhoneNumberRepository) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE phone_numbers SET status = $1, reserved_until = NULL, reservation_user_id = NULL,
			updated_at = NOW()
		WHERE status = $2 AND reserved_until < $3`

	tag, err := r.storage.Exec(ctx, query, entities.PhoneAvailable, entities.PhoneReserved, now)
	if err != nil {
		return 0, fmt.Errorf("release expired reservations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PhoneNumberRepository) explainMissedWrite(ctx context.Context, id uint64, expected string) error {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return apperrors.ErrNotFound
	}
	return apperrors.NewConflict("number %s is %s (%s)", current.Number, expected, current.Status)
}

func phoneNumberScanTargets(p *entities.PhoneNumber) []interface{} {
	return []interface{}{
		&p.ID, &p.DDD, &p.Prefix, &p.Sufix, &p.Number, &p.CityID, &p.Gold,
		&p.Portability, &p.Active, &p.Status, &p.ReservedUntil, &p.ContractID,
		&p.AllocationUserID, &p.ReservationUserID, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanPhoneNumbers(rows pgx.Rows) ([]entities.PhoneNumber, error) {
	numbers := make([]entities.PhoneNumber, 0)
	for rows.Next() {
		var p entities.PhoneNumber
		if err := rows.Scan(phoneNumberScanTargets(&p)...); err != nil {
			return nil, fmt.Errorf("scan phone number: %w", err)
		}
		numbers = append(numbers, p)
	}
	return numbers, rows.Err()
}
