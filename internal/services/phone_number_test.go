package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldops/internal/authz"
	"fieldops/internal/dto"
	"fieldops/internal/entities"
	"fieldops/pkg/config"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/types"
	"fieldops/pkg/utils"
)

type fakePhoneRepo struct {
	numbers map[uint64]*entities.PhoneNumber
	nextID  uint64
}

func newFakePhoneRepo(numbers ...entities.PhoneNumber) *fakePhoneRepo {
	r := &fakePhoneRepo{numbers: make(map[uint64]*entities.PhoneNumber), nextID: 1}
	for i := range numbers {
		n := numbers[i]
		r.numbers[n.ID] = &n
		if n.ID >= r.nextID {
			r.nextID = n.ID + 1
		}
	}
	return r
}

func (r *fakePhoneRepo) GetAll(_ context.Context, _ types.Filter) ([]entities.PhoneNumber, uint64, error) {
	out := make([]entities.PhoneNumber, 0, len(r.numbers))
	for _, n := range r.numbers {
		out = append(out, *n)
	}
	return out, uint64(len(out)), nil
}

func (r *fakePhoneRepo) FindByID(_ context.Context, id uint64) (*entities.PhoneNumber, error) {
	n, ok := r.numbers[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *n
	return &copied, nil
}

func (r *fakePhoneRepo) FindByIDs(_ context.Context, ids []uint64) ([]entities.PhoneNumber, error) {
	var out []entities.PhoneNumber
	for _, id := range ids {
		if n, ok := r.numbers[id]; ok {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakePhoneRepo) Create(_ context.Context, number *entities.PhoneNumber) (uint64, error) {
	for _, n := range r.numbers {
		if n.Number == number.Number {
			return 0, apperrors.NewConflict("phone number already exists")
		}
	}
	stored := *number
	stored.ID = r.nextID
	stored.Active = true
	stored.Status = entities.PhoneAvailable
	r.numbers[stored.ID] = &stored
	r.nextID++
	return stored.ID, nil
}

func (r *fakePhoneRepo) CreateRange(_ context.Context, base *entities.PhoneNumber, sufixEnd int) (int64, error) {
	var created int64
	for s := base.Sufix; s < sufixEnd; s++ {
		stored := entities.PhoneNumber{
			ID:          r.nextID,
			DDD:         base.DDD,
			Prefix:      base.Prefix,
			Sufix:       s,
			Number:      fmt.Sprintf("%s%s%04d", base.DDD, base.Prefix, s),
			CityID:      base.CityID,
			Portability: base.Portability,
			Active:      true,
			Status:      entities.PhoneAvailable,
		}
		r.numbers[stored.ID] = &stored
		r.nextID++
		created++
	}
	return created, nil
}

func (r *fakePhoneRepo) BindMultipleInTx(_ context.Context, _ pgx.Tx, contractID uint64, ids []uint64, userID uint64) error {
	var bindable int64
	for _, id := range ids {
		n, ok := r.numbers[id]
		if ok && n.Active && n.Status == entities.PhoneAvailable {
			bindable++
		}
	}
	if bindable != int64(len(ids)) {
		return apperrors.NewConflict("some numbers were taken while binding; refresh and retry")
	}
	for _, id := range ids {
		n := r.numbers[id]
		n.Status = entities.PhoneAllocated
		n.ContractID = null.Int64From(int64(contractID))
		n.AllocationUserID = null.Int64From(int64(userID))
		n.ReservedUntil = null.Time{}
		n.ReservationUserID = null.Int64{}
	}
	return nil
}

func (r *fakePhoneRepo) Unbind(_ context.Context, id uint64) error {
	n, ok := r.numbers[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if n.Status != entities.PhoneAllocated {
		return apperrors.NewConflict("number %s is not allocated (%s)", n.Number, n.Status)
	}
	n.Status = entities.PhoneAvailable
	n.ContractID = null.Int64{}
	n.AllocationUserID = null.Int64{}
	return nil
}

func (r *fakePhoneRepo) Reserve(_ context.Context, id, userID uint64, until time.Time) error {
	n, ok := r.numbers[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !n.Active || n.Status != entities.PhoneAvailable {
		return apperrors.NewConflict("number %s is not available (%s)", n.Number, n.Status)
	}
	n.Status = entities.PhoneReserved
	n.ReservedUntil = null.TimeFrom(until)
	n.ReservationUserID = null.Int64From(int64(userID))
	return nil
}

func (r *fakePhoneRepo) Release(_ context.Context, id uint64) error {
	n, ok := r.numbers[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if n.Status != entities.PhoneReserved {
		return apperrors.NewConflict("number %s is not reserved (%s)", n.Number, n.Status)
	}
	n.Status = entities.PhoneAvailable
	n.ReservedUntil = null.Time{}
	n.ReservationUserID = null.Int64{}
	return nil
}

func (r *fakePhoneRepo) ReleaseExpired(_ context.Context, now time.Time) (int64, error) {
	var released int64
	for _, n := range r.numbers {
		if n.Status == entities.PhoneReserved && n.ReservedUntil.Valid && n.ReservedUntil.Time.Before(now) {
			n.Status = entities.PhoneAvailable
			n.ReservedUntil = null.Time{}
			n.ReservationUserID = null.Int64{}
			released++
		}
	}
	return released, nil
}

func availableNumber(id uint64, number string, cityID uint64) entities.PhoneNumber {
	return entities.PhoneNumber{
		ID: id, DDD: "11", Prefix: "9760", Number: number, CityID: cityID,
		Active: true, Status: entities.PhoneAvailable,
	}
}

func newPhoneFixture(numbers ...entities.PhoneNumber) (*fakePhoneRepo, PhoneNumberServiceInterface) {
	repo := newFakePhoneRepo(numbers...)
	contracts := &fakeContractRepo{contracts: map[uint64]*entities.Contract{
		10: {ID: 10, Code: "CT-10", Client: "Acme", CityID: 3},
	}}
	defaults := config.PhoneConfig{DefaultDDD: "11", DefaultPrefix: "9760"}
	svc := NewPhoneNumberService(repo, contracts, fakeTxManager{}, defaults, zap.NewNop())
	return repo, svc
}

func TestCreatePhoneNumber(t *testing.T) {
	repo, svc := newPhoneFixture()
	session := sessionWith(authz.PhoneAddAllow)

	created, err := svc.Create(context.Background(), session, dto.CreatePhoneNumberDTO{
		DDD: "11", Prefix: "9760", Sufix: 1234, CityID: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, "1197601234", created.Number)
	assert.Equal(t, string(entities.PhoneAvailable), created.Status)
	assert.True(t, repo.numbers[created.ID].Active)
}

func TestCreatePhoneNumberCustomDDDNeedsPermission(t *testing.T) {
	_, svc := newPhoneFixture()

	_, err := svc.Create(context.Background(), sessionWith(authz.PhoneAddAllow), dto.CreatePhoneNumberDTO{
		DDD: "21", Prefix: "9760", Sufix: 1234, CityID: 3,
	})
	assertRefusal(t, err, http.StatusForbidden)

	privileged := sessionWith(authz.PhoneAddAllow, authz.PhoneAddChangeDDD)
	created, err := svc.Create(context.Background(), privileged, dto.CreatePhoneNumberDTO{
		DDD: "21", Prefix: "9855", Sufix: 1234, CityID: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "2198551234", created.Number)
}

func TestCreatePhoneNumberDuplicate(t *testing.T) {
	_, svc := newPhoneFixture(availableNumber(1, "1197601234", 3))

	_, err := svc.Create(context.Background(), sessionWith(authz.PhoneAddAllow), dto.CreatePhoneNumberDTO{
		DDD: "11", Prefix: "9760", Sufix: 1234, CityID: 3,
	})
	assertRefusal(t, err, http.StatusConflict)
}

func TestCreateRange(t *testing.T) {
	repo, svc := newPhoneFixture()
	session := sessionWith(authz.PhoneAddInterval)

	created, err := svc.CreateRange(context.Background(), session, dto.CreatePhoneNumberRangeDTO{
		DDD: "11", Prefix: "9760", Sufix: 1000, SufixEnd: 1005, CityID: 3,
	})
	require.NoError(t, err)

	// exclusive end: 1000..1004
	assert.Equal(t, int64(5), created.Created)
	for _, n := range repo.numbers {
		assert.True(t, n.Active)
		assert.Equal(t, entities.PhoneAvailable, n.Status)
		assert.False(t, n.Allocated())
		assert.False(t, n.Reserved())
	}
}

func TestCreateRangeRejectsEmptyInterval(t *testing.T) {
	_, svc := newPhoneFixture()
	session := sessionWith(authz.PhoneAddInterval)

	for _, end := range []int{1000, 999} {
		_, err := svc.CreateRange(context.Background(), session, dto.CreatePhoneNumberRangeDTO{
			DDD: "11", Prefix: "9760", Sufix: 1000, SufixEnd: end, CityID: 3,
		})
		assertRefusal(t, err, http.StatusUnprocessableEntity)
	}
}

func TestBindBatch(t *testing.T) {
	repo, svc := newPhoneFixture(
		availableNumber(1, "1197601000", 3),
		availableNumber(2, "1197601001", 3),
	)
	session := sessionWith(authz.PhoneBindAllow)

	bound, err := svc.Bind(context.Background(), session, dto.BindPhoneNumbersDTO{
		ContractID: 10, NumberIDs: []uint64{1, 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, bound.Bound)
	for _, id := range []uint64{1, 2} {
		assert.Equal(t, entities.PhoneAllocated, repo.numbers[id].Status)
		assert.Equal(t, int64(10), repo.numbers[id].ContractID.Int64)
	}
}

func TestBindBatchAllOrNothing(t *testing.T) {
	reserved := availableNumber(2, "1197601001", 3)
	reserved.Status = entities.PhoneReserved
	inactive := availableNumber(3, "1197601002", 3)
	inactive.Active = false
	repo, svc := newPhoneFixture(availableNumber(1, "1197601000", 3), reserved, inactive)
	session := sessionWith(authz.PhoneBindAllow)

	_, err := svc.Bind(context.Background(), session, dto.BindPhoneNumbersDTO{
		ContractID: 10, NumberIDs: []uint64{1, 2, 3},
	})
	assertRefusal(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, err.Error(), "1197601001: number is reserved")
	assert.Contains(t, err.Error(), "1197601002: number is inactive")

	// nothing bound, including the clean candidate
	assert.Equal(t, entities.PhoneAvailable, repo.numbers[1].Status)
}

func TestBindBatchAnotherCity(t *testing.T) {
	_, svc := newPhoneFixture(availableNumber(1, "1197601000", 9))

	_, err := svc.Bind(context.Background(), sessionWith(authz.PhoneBindAllow), dto.BindPhoneNumbersDTO{
		ContractID: 10, NumberIDs: []uint64{1},
	})
	assertRefusal(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, err.Error(), "another city")

	privileged := sessionWith(authz.PhoneBindAllow, authz.PhoneBindOtherCity)
	bound, err := svc.Bind(context.Background(), privileged, dto.BindPhoneNumbersDTO{
		ContractID: 10, NumberIDs: []uint64{1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, bound.Bound)
}

func TestBindBatchMissingNumber(t *testing.T) {
	_, svc := newPhoneFixture(availableNumber(1, "1197601000", 3))

	_, err := svc.Bind(context.Background(), sessionWith(authz.PhoneBindAllow), dto.BindPhoneNumbersDTO{
		ContractID: 10, NumberIDs: []uint64{1, 77},
	})
	assertRefusal(t, err, http.StatusUnprocessableEntity)
}

func TestUnbind(t *testing.T) {
	allocated := availableNumber(1, "1197601000", 3)
	allocated.Status = entities.PhoneAllocated
	allocated.ContractID = null.Int64From(10)
	repo, svc := newPhoneFixture(allocated)

	released, err := svc.Unbind(context.Background(), sessionWith(authz.PhoneUnbind), 1)
	require.NoError(t, err)

	assert.Equal(t, string(entities.PhoneAvailable), released.Status)
	assert.False(t, repo.numbers[1].ContractID.Valid)
}

func TestUnbindRejectsUnallocated(t *testing.T) {
	_, svc := newPhoneFixture(availableNumber(1, "1197601000", 3))

	_, err := svc.Unbind(context.Background(), sessionWith(authz.PhoneUnbind), 1)
	assertRefusal(t, err, http.StatusConflict)
}

func TestReserve(t *testing.T) {
	repo, svc := newPhoneFixture(availableNumber(1, "1197601000", 3))
	session := sessionWith(authz.PhoneReserve)

	reserved, err := svc.Reserve(context.Background(), session, 1, dto.ReservePhoneNumberDTO{Days: 5})
	require.NoError(t, err)

	assert.Equal(t, string(entities.PhoneReserved), reserved.Status)
	until := repo.numbers[1].ReservedUntil
	require.True(t, until.Valid)
	assert.Equal(t, utils.FormatDate(utils.Today().AddDate(0, 0, 5)), utils.FormatDate(until.Time))
	assert.False(t, until.Time.Before(time.Now()))
}

func TestReserveRequiresPositiveDays(t *testing.T) {
	repo, svc := newPhoneFixture(availableNumber(1, "1197601000", 3))
	session := sessionWith(authz.PhoneReserve)

	for _, days := range []int{0, -3} {
		_, err := svc.Reserve(context.Background(), session, 1, dto.ReservePhoneNumberDTO{Days: days})
		assertRefusal(t, err, http.StatusUnprocessableEntity)
	}
	assert.Equal(t, entities.PhoneAvailable, repo.numbers[1].Status)
}

func TestReserveRejectsAllocatedNumber(t *testing.T) {
	allocated := availableNumber(1, "1197601000", 3)
	allocated.Status = entities.PhoneAllocated
	_, svc := newPhoneFixture(allocated)

	_, err := svc.Reserve(context.Background(), sessionWith(authz.PhoneReserve), 1, dto.ReservePhoneNumberDTO{Days: 3})
	assertRefusal(t, err, http.StatusConflict)
}

func TestRelease(t *testing.T) {
	reserved := availableNumber(1, "1197601000", 3)
	reserved.Status = entities.PhoneReserved
	reserved.ReservedUntil = null.TimeFrom(utils.Today().AddDate(0, 0, 3))
	_, svc := newPhoneFixture(reserved)

	released, err := svc.Release(context.Background(), sessionWith(authz.PhoneRelease), 1)
	require.NoError(t, err)
	assert.Equal(t, string(entities.PhoneAvailable), released.Status)
}

func TestReleaseExpired(t *testing.T) {
	expired := availableNumber(1, "1197601000", 3)
	expired.Status = entities.PhoneReserved
	expired.ReservedUntil = null.TimeFrom(utils.Today().AddDate(0, 0, -2))
	current := availableNumber(2, "1197601001", 3)
	current.Status = entities.PhoneReserved
	current.ReservedUntil = null.TimeFrom(utils.Today().AddDate(0, 0, 2))
	repo, svc := newPhoneFixture(expired, current)

	out, err := svc.ReleaseExpired(context.Background(), sessionWith(authz.PhoneReleaseExpired))
	require.NoError(t, err)

	assert.Equal(t, int64(1), out.Released)
	assert.Equal(t, entities.PhoneAvailable, repo.numbers[1].Status)
	assert.Equal(t, entities.PhoneReserved, repo.numbers[2].Status)
}

func TestPhoneActionsRequireCapability(t *testing.T) {
	_, svc := newPhoneFixture(availableNumber(1, "1197601000", 3))
	none := sessionWith()
	ctx := context.Background()

	_, err := svc.Create(ctx, none, dto.CreatePhoneNumberDTO{DDD: "11", Prefix: "9760", Sufix: 1, CityID: 3})
	assertRefusal(t, err, http.StatusForbidden)
	_, err = svc.CreateRange(ctx, none, dto.CreatePhoneNumberRangeDTO{DDD: "11", Prefix: "9760", Sufix: 1, SufixEnd: 2, CityID: 3})
	assertRefusal(t, err, http.StatusForbidden)
	_, err = svc.Bind(ctx, none, dto.BindPhoneNumbersDTO{ContractID: 10, NumberIDs: []uint64{1}})
	assertRefusal(t, err, http.StatusForbidden)
	_, err = svc.Unbind(ctx, none, 1)
	assertRefusal(t, err, http.StatusForbidden)
	_, err = svc.Reserve(ctx, none, 1, dto.ReservePhoneNumberDTO{Days: 1})
	assertRefusal(t, err, http.StatusForbidden)
	_, err = svc.Release(ctx, none, 1)
	assertRefusal(t, err, http.StatusForbidden)
	_, err = svc.ReleaseExpired(ctx, none)
	assertRefusal(t, err, http.StatusForbidden)
}
