package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldops/internal/authz"
	"fieldops/internal/dto"
	"fieldops/internal/entities"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/types"
	"fieldops/pkg/utils"
)

type fakeOrderRepo struct {
	orders      map[uint64]*entities.Order
	reschedules []entities.Reschedule
	nextID      uint64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uint64]*entities.Order), nextID: 1}
}

func (r *fakeOrderRepo) GetAll(_ context.Context, _ types.Filter) ([]entities.Order, uint64, error) {
	out := make([]entities.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uint64) (*entities.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOrderRepo) FindActiveByOsCode(_ context.Context, osCode string) (*entities.Order, error) {
	for _, o := range r.orders {
		if o.OsCode == osCode && o.Status != entities.OrderCanceled {
			copied := *o
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeOrderRepo) ListActiveOnDate(_ context.Context, shiftID, cityID uint64, date time.Time, excludeOrderID uint64) ([]entities.Order, error) {
	var out []entities.Order
	for _, o := range r.orders {
		if o.ShiftID == shiftID && o.CityID == cityID && utils.SameDate(o.Date, date) &&
			o.Status != entities.OrderCanceled && o.ID != excludeOrderID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListScheduledOnDate(_ context.Context, date time.Time) ([]entities.Order, error) {
	var out []entities.Order
	for _, o := range r.orders {
		if utils.SameDate(o.Date, date) && o.Status == entities.OrderScheduled {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) Create(_ context.Context, order *entities.Order) (uint64, error) {
	for _, o := range r.orders {
		if o.OsCode == order.OsCode && o.Status != entities.OrderCanceled {
			return 0, apperrors.NewConflict("an order with this O.S. code already exists")
		}
	}
	stored := *order
	stored.ID = r.nextID
	stored.Status = entities.OrderScheduled
	r.orders[stored.ID] = &stored
	r.nextID++
	return stored.ID, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, id uint64, order *entities.Order) error {
	current, ok := r.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if current.Status != entities.OrderScheduled {
		return apperrors.NewConflict("order %s is already %s", current.OsCode, current.Status)
	}
	current.Client = order.Client
	current.Note = order.Note
	return nil
}

func (r *fakeOrderRepo) Close(_ context.Context, id, userID uint64, note string) error {
	current, ok := r.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if current.Status != entities.OrderScheduled {
		return apperrors.NewConflict("order %s is already %s", current.OsCode, current.Status)
	}
	current.Status = entities.OrderClosed
	return nil
}

func (r *fakeOrderRepo) Cancel(_ context.Context, id, userID uint64, reason string) error {
	current, ok := r.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if current.Status != entities.OrderScheduled {
		return apperrors.NewConflict("order %s is already %s", current.OsCode, current.Status)
	}
	current.Status = entities.OrderCanceled
	return nil
}

func (r *fakeOrderRepo) RescheduleInTx(_ context.Context, _ pgx.Tx, order *entities.Order, audit *entities.Reschedule) error {
	current, ok := r.orders[order.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if current.Status != entities.OrderScheduled {
		return apperrors.NewConflict("order %s is already %s", current.OsCode, current.Status)
	}
	current.Date = order.Date
	current.ShiftID = order.ShiftID
	current.CityID = order.CityID
	current.Rural = order.Rural
	current.Rescheduled = true
	stored := *audit
	stored.ID = uint64(len(r.reschedules) + 1)
	r.reschedules = append(r.reschedules, stored)
	return nil
}

func (r *fakeOrderRepo) ListReschedules(_ context.Context, orderID uint64) ([]entities.Reschedule, error) {
	var out []entities.Reschedule
	for _, rec := range r.reschedules {
		if rec.OrderID == orderID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeShiftCityRepo struct {
	pools map[uint64]*entities.ShiftCityPool
}

func newFakeShiftCityRepo(pools ...entities.ShiftCityPool) *fakeShiftCityRepo {
	r := &fakeShiftCityRepo{pools: make(map[uint64]*entities.ShiftCityPool)}
	for i := range pools {
		p := pools[i]
		r.pools[p.ID] = &p
	}
	return r
}

func (r *fakeShiftCityRepo) GetAll(_ context.Context, _ types.Filter) ([]entities.ShiftCityPool, uint64, error) {
	out := make([]entities.ShiftCityPool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, *p)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeShiftCityRepo) FindByID(_ context.Context, id uint64) (*entities.ShiftCityPool, error) {
	p, ok := r.pools[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeShiftCityRepo) GetByCity(_ context.Context, cityID uint64) ([]entities.ShiftCityPool, error) {
	var out []entities.ShiftCityPool
	for _, p := range r.pools {
		if p.CityID == cityID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeShiftCityRepo) FindByShiftAndCity(_ context.Context, shiftID, cityID uint64) (*entities.ShiftCityPool, error) {
	for _, p := range r.pools {
		if p.ShiftID == shiftID && p.CityID == cityID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeShiftCityRepo) UpsertCities(_ context.Context, _ pgx.Tx, shiftID uint64, rows []entities.ShiftCityPool) error {
	for _, row := range rows {
		found := false
		for _, p := range r.pools {
			if p.ShiftID == shiftID && p.CityID == row.CityID {
				p.Vacancies = row.Vacancies
				p.RuralVacancies = row.RuralVacancies
				found = true
			}
		}
		if !found {
			id := uint64(len(r.pools) + 1)
			r.pools[id] = &entities.ShiftCityPool{
				ID: id, ShiftID: shiftID, CityID: row.CityID,
				Vacancies: row.Vacancies, RuralVacancies: row.RuralVacancies,
			}
		}
	}
	return nil
}

func (r *fakeShiftCityRepo) AdjustVacancies(_ context.Context, id uint64, vacancyDelta, ruralDelta int) (*entities.ShiftCityPool, error) {
	p, ok := r.pools[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p.Vacancies = clampAdd(p.Vacancies, vacancyDelta)
	p.RuralVacancies = clampAdd(p.RuralVacancies, ruralDelta)
	copied := *p
	return &copied, nil
}

func clampAdd(v uint, delta int) uint {
	next := int(v) + delta
	if next < 0 {
		return 0
	}
	return uint(next)
}

type fakeContractRepo struct {
	contracts map[uint64]*entities.Contract
}

func (r *fakeContractRepo) FindByID(_ context.Context, id uint64) (*entities.Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// sessionWith builds a session granting exactly the given capability
// paths, resolved through the same mapping the oracle uses.
func sessionWith(paths ...string) authz.Session {
	nodes := make([]entities.PermissionNode, 0, len(paths))
	for i, p := range paths {
		nodes = append(nodes, entities.PermissionNode{ID: uint64(i + 1), Prefix: p})
	}
	return authz.Session{UserID: 42, RoleID: 1, Caps: authz.Build(nodes)}
}

func newOrderFixture(t *testing.T, pool entities.ShiftCityPool) (*fakeOrderRepo, OrderServiceInterface) {
	t.Helper()
	orderRepo := newFakeOrderRepo()
	shiftCityRepo := newFakeShiftCityRepo(pool)
	contractRepo := &fakeContractRepo{contracts: map[uint64]*entities.Contract{
		10: {ID: 10, Code: "CT-10", Client: "Acme", CityID: 3},
		11: {ID: 11, Code: "CT-11", Client: "Umbrella", CityID: 9},
		12: {ID: 12, Code: "CT-12", Client: "Initech", CityID: 3, SystemClosed: true},
	}}
	svc := NewOrderService(orderRepo, shiftCityRepo, contractRepo, fakeTxManager{}, zap.NewNop())
	return orderRepo, svc
}

func defaultPool() entities.ShiftCityPool {
	return entities.ShiftCityPool{ID: 1, ShiftID: 2, CityID: 3, Vacancies: 3, RuralVacancies: 1}
}

func createPayload() dto.CreateOrderDTO {
	return dto.CreateOrderDTO{
		OsCode:  "OS-1001",
		Client:  "Jordan Field",
		Date:    "2026-09-01",
		ShiftID: 2,
		CityID:  3,
	}
}

func assertRefusal(t *testing.T, err error, code int) {
	t.Helper()
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, code, httpErr.Code)
}

func TestCreateOrder(t *testing.T) {
	repo, svc := newOrderFixture(t, defaultPool())
	session := sessionWith(authz.OrderScheduleAllow)

	created, err := svc.Create(context.Background(), session, createPayload())
	require.NoError(t, err)

	assert.Equal(t, uint(2), created.Amount)
	stored := repo.orders[created.ID]
	require.NotNil(t, stored)
	assert.Equal(t, entities.OrderScheduled, stored.Status)
	assert.Equal(t, uint64(42), stored.CreatedBy)
}

func TestCreateOrderWithoutPermission(t *testing.T) {
	_, svc := newOrderFixture(t, defaultPool())

	_, err := svc.Create(context.Background(), sessionWith(), createPayload())
	assertRefusal(t, err, http.StatusForbidden)
}

func TestCreateOrderShiftFull(t *testing.T) {
	repo, svc := newOrderFixture(t, defaultPool())
	session := sessionWith(authz.OrderScheduleAllow)

	for i, code := range []string{"OS-1", "OS-2", "OS-3"} {
		p := createPayload()
		p.OsCode = code
		_, err := svc.Create(context.Background(), session, p)
		require.NoError(t, err, "order %d", i)
	}

	p := createPayload()
	p.OsCode = "OS-4"
	_, err := svc.Create(context.Background(), session, p)
	assertRefusal(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, err.Error(), "shift is full")
	assert.Len(t, repo.orders, 3)
}

func TestCreateOrderShiftFullOverride(t *testing.T) {
	_, svc := newOrderFixture(t, defaultPool())
	full := sessionWith(authz.OrderScheduleAllow, authz.OrderScheduleShiftFull)

	for _, code := range []string{"OS-1", "OS-2", "OS-3", "OS-4"} {
		p := createPayload()
		p.OsCode = code
		_, err := svc.Create(context.Background(), full, p)
		require.NoError(t, err)
	}
}

func TestCreateOrderSuggestsRuralFallback(t *testing.T) {
	_, svc := newOrderFixture(t, defaultPool())
	session := sessionWith(authz.OrderScheduleAllow, authz.OrderScheduleRural)

	for _, code := range []string{"OS-1", "OS-2", "OS-3"} {
		p := createPayload()
		p.OsCode = code
		_, err := svc.Create(context.Background(), session, p)
		require.NoError(t, err)
	}

	p := createPayload()
	p.OsCode = "OS-4"
	_, err := svc.Create(context.Background(), session, p)
	assertRefusal(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, err.Error(), "rural vacancies are still available")

	// taking the suggestion succeeds and exhausts the rural pool
	p.Rural = true
	created, err := svc.Create(context.Background(), session, p)
	require.NoError(t, err)
	assert.Equal(t, uint(0), created.RuralAmount)
}

func TestCreateRuralOrderWithoutRuralPermission(t *testing.T) {
	_, svc := newOrderFixture(t, defaultPool())
	p := createPayload()
	p.Rural = true

	_, err := svc.Create(context.Background(), sessionWith(authz.OrderScheduleAllow), p)
	assertRefusal(t, err, http.StatusForbidden)
}

func TestCreateOrderDuplicateOsCode(t *testing.T) {
	_, svc := newOrderFixture(t, defaultPool())
	session := sessionWith(authz.OrderScheduleAllow)

	_, err := svc.Create(context.Background(), session, createPayload())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), session, createPayload())
	assertRefusal(t, err, http.StatusUnprocessableEntity)

	// the duplicate_schedule capability lifts the guard but the second
	// create then hits the store-level unique constraint
	privileged := sessionWith(authz.OrderScheduleAllow, authz.OrderScheduleDuplicate)
	_, err = svc.Create(context.Background(), privileged, createPayload())
	assertRefusal(t, err, http.StatusConflict)
}

func TestCreateOrderContractCityMismatch(t *testing.T) {
	_, svc := newOrderFixture(t, defaultPool())
	contractID := uint64(11)
	p := createPayload()
	p.ContractID = &contractID

	_, err := svc.Create(context.Background(), sessionWith(authz.OrderScheduleAllow), p)
	assertRefusal(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, err.Error(), "another city")

	privileged := sessionWith(authz.OrderScheduleAllow, authz.OrderScheduleOtherCity)
	_, err = svc.Create(context.Background(), privileged, p)
	require.NoError(t, err)
}

func TestCreateOrderSystemClosedContract(t *testing.T) {
	_, svc := newOrderFixture(t, defaultPool())
	contractID := uint64(12)
	p := createPayload()
	p.ContractID = &contractID

	_, err := svc.Create(context.Background(), sessionWith(authz.OrderScheduleAllow), p)
	assertRefusal(t, err, http.StatusUnprocessableEntity)

	privileged := sessionWith(authz.OrderScheduleAllow, authz.OrderScheduleSysClosed)
	_, err = svc.Create(context.Background(), privileged, p)
	require.NoError(t, err)
}

func TestCancelOrderEmptyReason(t *testing.T) {
	repo, svc := newOrderFixture(t, defaultPool())
	session := sessionWith(authz.OrderScheduleAllow, authz.OrderCancel)
	created, err := svc.Create(context.Background(), session, createPayload())
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), session, created.ID, dto.CancelOrderDTO{Reason: "   "})
	assertRefusal(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, entities.OrderScheduled, repo.orders[created.ID].Status)
}

func TestTerminalOrderRejectsAllTransitions(t *testing.T) {
	repo, svc := newOrderFixture(t, defaultPool())
	session := sessionWith(
		authz.OrderScheduleAllow, authz.OrderEdit, authz.OrderClose,
		authz.OrderCancel, authz.OrderReschedule,
	)
	created, err := svc.Create(context.Background(), session, createPayload())
	require.NoError(t, err)
	require.NoError(t, svc.Close(context.Background(), session, created.ID, dto.CloseOrderDTO{}))
	require.Equal(t, entities.OrderClosed, repo.orders[created.ID].Status)

	err = svc.Close(context.Background(), session, created.ID, dto.CloseOrderDTO{})
	assertRefusal(t, err, http.StatusConflict)

	err = svc.Cancel(context.Background(), session, created.ID, dto.CancelOrderDTO{Reason: "duplicate"})
	assertRefusal(t, err, http.StatusConflict)

	client := "New Client"
	_, err = svc.Update(context.Background(), session, created.ID, dto.UpdateOrderDTO{Client: &client})
	assertRefusal(t, err, http.StatusConflict)

	_, err = svc.Reschedule(context.Background(), session, created.ID, dto.RescheduleOrderDTO{
		Reason: "client asked", Date: "2026-09-02", ShiftID: 2,
	})
	assertRefusal(t, err, http.StatusConflict)
}

func TestRescheduleNoop(t *testing.T) {
	_, svc := newOrderFixture(t, defaultPool())
	session := sessionWith(authz.OrderScheduleAllow, authz.OrderReschedule, authz.OrderScheduleShiftFull)
	created, err := svc.Create(context.Background(), session, createPayload())
	require.NoError(t, err)

	_, err = svc.Reschedule(context.Background(), session, created.ID, dto.RescheduleOrderDTO{
		Reason: "misclick", Date: "2026-09-01", ShiftID: 2,
	})
	assertRefusal(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, err.Error(), "must change")
}

func TestRescheduleMovesOrderAndRecordsAudit(t *testing.T) {
	repo, svc := newOrderFixture(t, defaultPool())
	session := sessionWith(authz.OrderScheduleAllow, authz.OrderReschedule)
	created, err := svc.Create(context.Background(), session, createPayload())
	require.NoError(t, err)

	moved, err := svc.Reschedule(context.Background(), session, created.ID, dto.RescheduleOrderDTO{
		Reason: "client asked", Date: "2026-09-03", ShiftID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-09-03", moved.Date)
	assert.True(t, moved.Rescheduled)

	records, err := svc.ListReschedules(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2026-09-01", records[0].OldDate)
	assert.Equal(t, "2026-09-03", records[0].NewDate)
	assert.Nil(t, records[0].OldShiftID)

	assert.True(t, repo.orders[created.ID].Rescheduled)
}

func TestRescheduleToAnotherCityRequiresPermission(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	shiftCityRepo := newFakeShiftCityRepo(
		defaultPool(),
		entities.ShiftCityPool{ID: 2, ShiftID: 2, CityID: 9, Vacancies: 2},
	)
	contractRepo := &fakeContractRepo{contracts: map[uint64]*entities.Contract{}}
	svc := NewOrderService(orderRepo, shiftCityRepo, contractRepo, fakeTxManager{}, zap.NewNop())

	// no contract on the order: the city guard must still hold
	session := sessionWith(authz.OrderScheduleAllow, authz.OrderReschedule)
	created, err := svc.Create(context.Background(), session, createPayload())
	require.NoError(t, err)

	city := uint64(9)
	_, err = svc.Reschedule(context.Background(), session, created.ID, dto.RescheduleOrderDTO{
		Reason: "client moved", Date: "2026-09-02", ShiftID: 2, CityID: &city,
	})
	assertRefusal(t, err, http.StatusForbidden)
	assert.Equal(t, uint64(3), orderRepo.orders[created.ID].CityID)

	elevated := sessionWith(authz.OrderScheduleAllow, authz.OrderScheduleOtherCity, authz.OrderReschedule)
	moved, err := svc.Reschedule(context.Background(), elevated, created.ID, dto.RescheduleOrderDTO{
		Reason: "client moved", Date: "2026-09-02", ShiftID: 2, CityID: &city,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), moved.CityID)
}

func TestRescheduleExcludesSelfFromOccupancy(t *testing.T) {
	pool := defaultPool()
	pool.Vacancies = 1
	_, svc := newOrderFixture(t, pool)
	session := sessionWith(authz.OrderScheduleAllow, authz.OrderScheduleRural, authz.OrderReschedule)
	created, err := svc.Create(context.Background(), session, createPayload())
	require.NoError(t, err)

	// same date and slot, only the rural flag changes: the order must
	// not block itself on the single urban vacancy it holds
	rural := true
	_, err = svc.Reschedule(context.Background(), session, created.ID, dto.RescheduleOrderDTO{
		Reason: "rural address after all", Date: "2026-09-01", ShiftID: 2, Rural: &rural,
	})
	require.NoError(t, err)
}

func TestRescheduleIntoFullSlot(t *testing.T) {
	_, svc := newOrderFixture(t, defaultPool())
	session := sessionWith(authz.OrderScheduleAllow, authz.OrderReschedule)

	for _, code := range []string{"OS-1", "OS-2", "OS-3"} {
		p := createPayload()
		p.OsCode = code
		p.Date = "2026-09-05"
		_, err := svc.Create(context.Background(), session, p)
		require.NoError(t, err)
	}
	created, err := svc.Create(context.Background(), session, createPayload())
	require.NoError(t, err)

	_, err = svc.Reschedule(context.Background(), session, created.ID, dto.RescheduleOrderDTO{
		Reason: "client asked", Date: "2026-09-05", ShiftID: 2,
	})
	assertRefusal(t, err, http.StatusUnprocessableEntity)
}

func TestUpdateOrderEditsDescriptiveFields(t *testing.T) {
	_, svc := newOrderFixture(t, defaultPool())
	session := sessionWith(authz.OrderScheduleAllow, authz.OrderEdit)
	created, err := svc.Create(context.Background(), session, createPayload())
	require.NoError(t, err)

	client := "Riley Ops"
	note := "gate code 4711"
	updated, err := svc.Update(context.Background(), session, created.ID, dto.UpdateOrderDTO{Client: &client, Note: &note})
	require.NoError(t, err)
	assert.Equal(t, "Riley Ops", updated.Client)
	require.NotNil(t, updated.Note)
	assert.Equal(t, "gate code 4711", *updated.Note)
}
