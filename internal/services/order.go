package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fieldops/internal/authz"
	"fieldops/internal/dto"
	"fieldops/internal/entities"
	"fieldops/internal/repositories"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/types"
	"fieldops/pkg/utils"
)

type OrderServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]dto.OrderDTO, uint64, error)
	Find(ctx context.Context, id uint64) (*dto.OrderDTO, error)
	Create(ctx context.Context, session authz.Session, payload dto.CreateOrderDTO) (*dto.CreatedOrderDTO, error)
	Update(ctx context.Context, session authz.Session, id uint64, payload dto.UpdateOrderDTO) (*dto.OrderDTO, error)
	Close(ctx context.Context, session authz.Session, id uint64, payload dto.CloseOrderDTO) error
	Cancel(ctx context.Context, session authz.Session, id uint64, payload dto.CancelOrderDTO) error
	Reschedule(ctx context.Context, session authz.Session, id uint64, payload dto.RescheduleOrderDTO) (*dto.OrderDTO, error)
	ListReschedules(ctx context.Context, orderID uint64) ([]dto.RescheduleDTO, error)
}

type OrderService struct {
	orderRepo     repositories.OrderRepositoryInterface
	shiftCityRepo repositories.ShiftCityRepositoryInterface
	contractRepo  repositories.ContractRepositoryInterface
	txManager     repositories.TxManagerInterface
	logger        *zap.Logger
}

func NewOrderService(
	orderRepo repositories.OrderRepositoryInterface,
	shiftCityRepo repositories.ShiftCityRepositoryInterface,
	contractRepo repositories.ContractRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) OrderServiceInterface {
	return &OrderService{
		orderRepo:     orderRepo,
		shiftCityRepo: shiftCityRepo,
		contractRepo:  contractRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

func (s *OrderService) GetAll(ctx context.Context, filter types.Filter) ([]dto.OrderDTO, uint64, error) {
	orders, total, err := s.orderRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, dto.NewOrderDTO(&orders[i]))
	}
	return out, total, nil
}

func (s *OrderService) Find(ctx context.Context, id uint64) (*dto.OrderDTO, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.NewOrderDTO(order)
	return &out, nil
}

// Create runs the full schedule gate before touching the orders table:
// capability checks, contract checks, duplicate check and the capacity
// check, in that order. The unique index on os_code backs the duplicate
// check under concurrency.
func (s *OrderService) Create(ctx context.Context, session authz.Session, payload dto.CreateOrderDTO) (*dto.CreatedOrderDTO, error) {
	caps := &session.Caps
	if !caps.Order.Schedule.Allow {
		return nil, apperrors.NewPermissionRefusal("no permission to schedule orders")
	}
	if payload.Rural && !caps.Order.Schedule.Rural {
		return nil, apperrors.NewPermissionRefusal("no permission to schedule rural orders")
	}

	date, err := utils.ParseDate(payload.Date)
	if err != nil {
		return nil, err
	}

	if payload.ContractID != nil {
		if err := s.checkContract(ctx, caps, *payload.ContractID, payload.CityID); err != nil {
			return nil, err
		}
	}

	if err := s.checkDuplicateSchedule(ctx, caps, payload.OsCode); err != nil {
		return nil, err
	}

	vac, err := s.slotVacancies(ctx, payload.ShiftID, payload.CityID, date, 0)
	if err != nil {
		return nil, err
	}
	if e := ScheduleEligibility(caps, payload.Rural, vac); !e.Allowed {
		return nil, scheduleRefusal(e)
	}

	order := &entities.Order{
		OsCode:    payload.OsCode,
		Client:    payload.Client,
		Date:      date,
		ShiftID:   payload.ShiftID,
		CityID:    payload.CityID,
		Rural:     payload.Rural,
		CreatedBy: session.UserID,
	}
	if payload.Note != nil {
		order.Note = null.StringFrom(*payload.Note)
	}
	if payload.ContractID != nil {
		order.ContractID = null.Int64From(int64(*payload.ContractID))
	}

	id, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order scheduled",
		zap.Uint64("orderID", id), zap.String("osCode", order.OsCode),
		zap.Uint64("userID", session.UserID))

	// Report the counters as they stand with the new order in place.
	remaining := vac
	if payload.Rural {
		remaining.RuralAmount = subtractToZero(remaining.RuralAmount, 1)
	} else {
		remaining.Amount = subtractToZero(remaining.Amount, 1)
	}
	return &dto.CreatedOrderDTO{ID: id, Amount: remaining.Amount, RuralAmount: remaining.RuralAmount}, nil
}

func (s *OrderService) Update(ctx context.Context, session authz.Session, id uint64, payload dto.UpdateOrderDTO) (*dto.OrderDTO, error) {
	if !session.Caps.Order.Edit {
		return nil, apperrors.NewPermissionRefusal("no permission to edit orders")
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Terminal() {
		return nil, apperrors.NewConflict("order %s is already %s", order.OsCode, order.Status)
	}

	// Date, shift and city changes go through Reschedule so they leave
	// an audit record; edit only touches descriptive fields.
	if payload.Client != nil {
		order.Client = *payload.Client
	}
	if payload.Note != nil {
		order.Note = null.StringFrom(*payload.Note)
	}

	if err := s.orderRepo.Update(ctx, id, order); err != nil {
		return nil, err
	}
	return s.Find(ctx, id)
}

func (s *OrderService) Close(ctx context.Context, session authz.Session, id uint64, payload dto.CloseOrderDTO) error {
	if !session.Caps.Order.Close {
		return apperrors.NewPermissionRefusal("no permission to close orders")
	}
	if err := s.orderRepo.Close(ctx, id, session.UserID, payload.Note); err != nil {
		return err
	}
	s.logger.Info("order closed", zap.Uint64("orderID", id), zap.Uint64("userID", session.UserID))
	return nil
}

func (s *OrderService) Cancel(ctx context.Context, session authz.Session, id uint64, payload dto.CancelOrderDTO) error {
	if !session.Caps.Order.Cancel {
		return apperrors.NewPermissionRefusal("no permission to cancel orders")
	}
	if strings.TrimSpace(payload.Reason) == "" {
		return apperrors.NewGuardRefusal("a cancellation reason is required")
	}
	if err := s.orderRepo.Cancel(ctx, id, session.UserID, payload.Reason); err != nil {
		return err
	}
	s.logger.Info("order canceled", zap.Uint64("orderID", id), zap.Uint64("userID", session.UserID))
	return nil
}

// Reschedule moves a scheduled order to another slot and records the
// move. The capacity check for the target slot carves the moving order
// out of its own occupancy, so moving within the same pool never fails
// on a slot the order itself holds.
func (s *OrderService) Reschedule(ctx context.Context, session authz.Session, id uint64, payload dto.RescheduleOrderDTO) (*dto.OrderDTO, error) {
	caps := &session.Caps
	if !caps.Order.Reschedule {
		return nil, apperrors.NewPermissionRefusal("no permission to reschedule orders")
	}
	if strings.TrimSpace(payload.Reason) == "" {
		return nil, apperrors.NewGuardRefusal("a reschedule reason is required")
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Terminal() {
		return nil, apperrors.NewConflict("order %s is already %s", order.OsCode, order.Status)
	}

	newDate, err := utils.ParseDate(payload.Date)
	if err != nil {
		return nil, err
	}
	newShiftID := payload.ShiftID
	newCityID := order.CityID
	if payload.CityID != nil {
		newCityID = *payload.CityID
	}
	newRural := order.Rural
	if payload.Rural != nil {
		newRural = *payload.Rural
	}

	if utils.SameDate(order.Date, newDate) && newShiftID == order.ShiftID &&
		newCityID == order.CityID && newRural == order.Rural {
		return nil, apperrors.NewGuardRefusal("reschedule must change the date, shift, or city")
	}

	if newRural && !caps.Order.Schedule.Rural {
		return nil, apperrors.NewPermissionRefusal("no permission to schedule rural orders")
	}
	if newCityID != order.CityID {
		if !caps.Order.Schedule.AnotherCity {
			return nil, apperrors.NewPermissionRefusal("no permission to move orders to another city")
		}
		if order.ContractID.Valid {
			if err := s.checkContract(ctx, caps, uint64(order.ContractID.Int64), newCityID); err != nil {
				return nil, err
			}
		}
	}

	vac, err := s.slotVacancies(ctx, newShiftID, newCityID, newDate, id)
	if err != nil {
		return nil, err
	}
	if e := rescheduleEligibility(caps, newRural, vac); !e.Allowed {
		return nil, scheduleRefusal(e)
	}

	audit := &entities.Reschedule{
		OrderID: id,
		Reason:  payload.Reason,
		OldDate: order.Date,
		NewDate: newDate,
		UserID:  session.UserID,
	}
	if newShiftID != order.ShiftID {
		audit.OldShiftID = null.Int64From(int64(order.ShiftID))
		audit.NewShiftID = null.Int64From(int64(newShiftID))
	}
	if newCityID != order.CityID {
		audit.OldCityID = null.Int64From(int64(order.CityID))
		audit.NewCityID = null.Int64From(int64(newCityID))
	}

	order.Date = newDate
	order.ShiftID = newShiftID
	order.CityID = newCityID
	order.Rural = newRural

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.orderRepo.RescheduleInTx(ctx, tx, order, audit)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order rescheduled",
		zap.Uint64("orderID", id), zap.String("newDate", utils.FormatDate(newDate)),
		zap.Uint64("userID", session.UserID))

	return s.Find(ctx, id)
}

func (s *OrderService) ListReschedules(ctx context.Context, orderID uint64) ([]dto.RescheduleDTO, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	records, err := s.orderRepo.ListReschedules(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RescheduleDTO, 0, len(records))
	for i := range records {
		out = append(out, dto.NewRescheduleDTO(&records[i]))
	}
	return out, nil
}

// checkContract verifies the order's city against the contract's city
// and the contract's system state, each overridable by its capability.
func (s *OrderService) checkContract(ctx context.Context, caps *authz.Capabilities, contractID, cityID uint64) error {
	contract, err := s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewGuardRefusal("contract %d does not exist", contractID)
		}
		return err
	}
	if contract.CityID != cityID && !caps.Order.Schedule.AnotherCity {
		return apperrors.NewGuardRefusal("contract %s belongs to another city", contract.Code)
	}
	if contract.SystemClosed && !caps.Order.Schedule.SystemClosed {
		return apperrors.NewGuardRefusal("contract %s is closed in the source system", contract.Code)
	}
	return nil
}

func (s *OrderService) checkDuplicateSchedule(ctx context.Context, caps *authz.Capabilities, osCode string) error {
	existing, err := s.orderRepo.FindActiveByOsCode(ctx, osCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if !caps.Order.Schedule.DuplicateSchedule {
		return apperrors.NewGuardRefusal("an active order for O.S. %s already exists", existing.OsCode)
	}
	return nil
}

// slotVacancies loads the pool for a slot and derives its remaining
// capacity from the orders occupying it. A missing pool means the shift
// does not operate in that city.
func (s *OrderService) slotVacancies(ctx context.Context, shiftID, cityID uint64, date time.Time, excludeOrderID uint64) (VacancyCount, error) {
	pool, err := s.shiftCityRepo.FindByShiftAndCity(ctx, shiftID, cityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return VacancyCount{}, apperrors.NewGuardRefusal("shift is not available in this city")
		}
		return VacancyCount{}, err
	}
	orders, err := s.orderRepo.ListActiveOnDate(ctx, shiftID, cityID, date, excludeOrderID)
	if err != nil {
		return VacancyCount{}, err
	}
	return Vacancies(pool, orders), nil
}

// rescheduleEligibility is the capacity gate for moving an order. The
// reschedule capability stands in for schedule.allow; the rural
// permission is checked by the caller before the capacity math.
func rescheduleEligibility(caps *authz.Capabilities, rural bool, vac VacancyCount) Eligibility {
	borrowed := *caps
	borrowed.Order.Schedule.Allow = true
	return ScheduleEligibility(&borrowed, rural, vac)
}

func scheduleRefusal(e Eligibility) error {
	if e.SuggestRural {
		return apperrors.NewGuardRefusal("%s; rural vacancies are still available", e.Reason)
	}
	return apperrors.NewGuardRefusal("%s", e.Reason)
}
