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
	orderTable  = "orders"
	orderFields = `id, os_code, client, date, shift_id, city_id, rural, note, contract_id,
		status, rescheduled, created_by, closed_by, closed_at, closing_note,
		canceled_by, canceled_at, cancel_reason, created_at, updated_at`
)

var allowedOrderFilters = map[string]string{
	"id":       "id",
	"os_code":  "os_code",
	"shift_id": "shift_id",
	"city_id":  "city_id",
	"rural":    "rural",
	"status":   "status",
	"date":     "date",
}

type OrderRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.Order, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Order, error)
	FindActiveByOsCode(ctx context.Context, osCode string) (*entities.Order, error)
	ListActiveOnDate(ctx context.Context, shiftID, cityID uint64, date time.Time, excludeOrderID uint64) ([]entities.Order, error)
	Create(ctx context.Context, order *entities.Order) (uint64, error)
	Update(ctx context.Context, id uint64, order *entities.Order) error
	Close(ctx context.Context, id, userID uint64, note string) error
	Cancel(ctx context.Context, id, userID uint64, reason string) error
	RescheduleInTx(ctx context.Context, tx pgx.Tx, order *entities.Order, audit *entities.Reschedule) error
	ListReschedules(ctx context.Context, orderID uint64) ([]entities.Reschedule, error)
	ListScheduledOnDate(ctx context.Context, date time.Time) ([]entities.Order, error)
}

type OrderRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderRepositoryInterface {
	return &OrderRepository{storage: storage, logger: logger}
}

func (r *OrderRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.Order, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pattern := "%" + filter.Search + "%"
			return b.Where(sq.Or{sq.ILike{"os_code": pattern}, sq.ILike{"client": pattern}})
		}
		return b
	}

	countBuilder := sq.Select("COUNT(*)").From(orderTable).PlaceholderFormat(sq.Dollar)
	countBuilder = applySearch(db.ApplyListParams(countBuilder, types.Filter{Filter: filter.Filter}, allowedOrderFilters))
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	builder := sq.Select(orderFields).From(orderTable).PlaceholderFormat(sq.Dollar)
	builder = applySearch(db.ApplyListParams(builder, filter, allowedOrderFilters))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("created_at DESC")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint64) (*entities.Order, error) {
	query := "SELECT " + orderFields + " FROM " + orderTable + " WHERE id = $1"
	return r.queryOne(ctx, r.storage, query, id)
}

// FindActiveByOsCode looks up a non-canceled order holding the O.S.
// code; used by the duplicate-schedule guard.
func (r *OrderRepository) FindActiveByOsCode(ctx context.Context, osCode string) (*entities.Order, error) {
	query := "SELECT " + orderFields + " FROM " + orderTable +
		" WHERE os_code = $1 AND status <> $2 LIMIT 1"
	return r.queryOne(ctx, r.storage, query, osCode, entities.OrderCanceled)
}

// ListActiveOnDate returns the non-canceled orders consuming the
// (shift, city, date) pool. excludeOrderID carves the moving order out
// of its own occupancy during a reschedule check; zero excludes nothing.
func (r *OrderRepository) ListActiveOnDate(ctx context.Context, shiftID, cityID uint64, date time.Time, excludeOrderID uint64) ([]entities.Order, error) {
	query := "SELECT " + orderFields + " FROM " + orderTable + `
		WHERE shift_id = $1 AND city_id = $2 AND date = $3 AND status <> $4 AND id <> $5`

	rows, err := r.storage.Query(ctx, query, shiftID, cityID, date, entities.OrderCanceled, excludeOrderID)
	if err != nil {
		return nil, fmt.Errorf("list orders on date: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (r *OrderRepository) ListScheduledOnDate(ctx context.Context, date time.Time) ([]entities.Order, error) {
	query := "SELECT " + orderFields + " FROM " + orderTable +
		" WHERE date = $1 AND status = $2 ORDER BY shift_id, city_id"

	rows, err := r.storage.Query(ctx, query, date, entities.OrderScheduled)
	if err != nil {
		return nil, fmt.Errorf("list schedule for date: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (r *OrderRepository) Create(ctx context.Context, order *entities.Order) (uint64, error) {
	query := `
		INSERT INTO orders (os_code, client, date, shift_id, city_id, rural, note, contract_id,
			status, rescheduled, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10, NOW(), NOW())
		RETURNING id`

	var id uint64
	err := r.storage.QueryRow(ctx, query,
		order.OsCode, order.Client, order.Date, order.ShiftID, order.CityID, order.Rural,
		order.Note, order.ContractID, entities.OrderScheduled, order.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err, "an order with this O.S. code already exists")
	}
	return id, nil
}

func (r *OrderRepository) Update(ctx context.Context, id uint64, order *entities.Order) error {
	query := `
		UPDATE orders SET client = $2, date = $3, shift_id = $4, city_id = $5,
			rural = $6, note = $7, updated_at = NOW()
		WHERE id = $1 AND status = $8`

	tag, err := r.storage.Exec(ctx, query, id,
		order.Client, order.Date, order.ShiftID, order.CityID, order.Rural, order.Note,
		entities.OrderScheduled,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMissedWrite(ctx, r.storage, id)
	}
	return nil
}

func (r *OrderRepository) Close(ctx context.Context, id, userID uint64, note string) error {
	query := `
		UPDATE orders SET status = $2, closed_by = $3, closed_at = NOW(),
			closing_note = NULLIF($4, ''), updated_at = NOW()
		WHERE id = $1 AND status = $5`

	tag, err := r.storage.Exec(ctx, query, id, entities.OrderClosed, userID, note, entities.OrderScheduled)
	if err != nil {
		return fmt.Errorf("close order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMissedWrite(ctx, r.storage, id)
	}
	return nil
}

func (r *OrderRepository) Cancel(ctx context.Context, id, userID uint64, reason string) error {
	query := `
		UPDATE orders SET status = $2, canceled_by = $3, canceled_at = NOW(),
			cancel_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5`

	tag, err := r.storage.Exec(ctx, query, id, entities.OrderCanceled, userID, reason, entities.OrderScheduled)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMissedWrite(ctx, r.storage, id)
	}
	return nil
}

// RescheduleInTx moves the order and appends its audit record in one
// transaction. The status guard catches an order closed or canceled by
// another actor between snapshot and write.
func (r *OrderRepository) RescheduleInTx(ctx context.Context, tx pgx.Tx, order *entities.Order, audit *entities.Reschedule) error {
	updateQuery := `
		UPDATE orders SET date = $2, shift_id = $3, city_id = $4, rural = $5,
			rescheduled = true, updated_at = NOW()
		WHERE id = $1 AND status = $6`

	tag, err := tx.Exec(ctx, updateQuery, order.ID,
		order.Date, order.ShiftID, order.CityID, order.Rural, entities.OrderScheduled)
	if err != nil {
		return fmt.Errorf("reschedule order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMissedWrite(ctx, tx, order.ID)
	}

	auditQuery := `
		INSERT INTO reschedules (order_id, reason, old_date, new_date,
			old_shift_id, new_shift_id, old_city_id, new_city_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`

	if _, err := tx.Exec(ctx, auditQuery,
		audit.OrderID, audit.Reason, audit.OldDate, audit.NewDate,
		audit.OldShiftID, audit.NewShiftID, audit.OldCityID, audit.NewCityID, audit.UserID,
	); err != nil {
		return fmt.Errorf("insert reschedule record: %w", err)
	}
	return nil
}

func (r *OrderRepository) ListReschedules(ctx context.Context, orderID uint64) ([]entities.Reschedule, error) {
	query := `
		SELECT id, order_id, reason, old_date, new_date, old_shift_id, new_shift_id,
			old_city_id, new_city_id, user_id, created_at
		FROM reschedules WHERE order_id = $1 ORDER BY created_at`

	rows, err := r.storage.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list reschedules: %w", err)
	}
	defer rows.Close()

	records := make([]entities.Reschedule, 0)
	for rows.Next() {
		var rec entities.Reschedule
		if err := rows.Scan(
			&rec.ID, &rec.OrderID, &rec.Reason, &rec.OldDate, &rec.NewDate,
			&rec.OldShiftID, &rec.NewShiftID, &rec.OldCityID, &rec.NewCityID,
			&rec.UserID, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reschedule record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// explainMissedWrite distinguishes "vanished" from "already terminal"
// after a guarded update touched zero rows. It re-reads through the
// caller's querier so a check inside a transaction sees its snapshot.
func (r *OrderRepository) explainMissedWrite(ctx context.Context, q querier, id uint64) error {
	query := "SELECT " + orderFields + " FROM " + orderTable + " WHERE id = $1"
	current, err := r.queryOne(ctx, q, query, id)
	if err != nil {
		return apperrors.ErrNotFound
	}
	return apperrors.NewConflict("order %s is already %s", current.OsCode, current.Status)
}

func (r *OrderRepository) queryOne(ctx context.Context, q querier, query string, args ...interface{}) (*entities.Order, error) {
	var o entities.Order
	err := q.QueryRow(ctx, query, args...).Scan(
		&o.ID, &o.OsCode, &o.Client, &o.Date, &o.ShiftID, &o.CityID, &o.Rural,
		&o.Note, &o.ContractID, &o.Status, &o.Rescheduled, &o.CreatedBy,
		&o.ClosedBy, &o.ClosedAt, &o.ClosingNote,
		&o.CanceledBy, &o.CanceledAt, &o.CancelReason,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]entities.Order, error) {
	orders := make([]entities.Order, 0)
	for rows.Next() {
		var o entities.Order
		if err := rows.Scan(
			&o.ID, &o.OsCode, &o.Client, &o.Date, &o.ShiftID, &o.CityID, &o.Rural,
			&o.Note, &o.ContractID, &o.Status, &o.Rescheduled, &o.CreatedBy,
			&o.ClosedBy, &o.ClosedAt, &o.ClosingNote,
			&o.CanceledBy, &o.CanceledAt, &o.CancelReason,
			&o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
