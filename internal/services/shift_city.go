package services

import (
	"context"
	"errors"
	"time"

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

type ShiftCityServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]dto.ShiftCityPoolDTO, uint64, error)
	GetByCityOnDate(ctx context.Context, cityID uint64, date time.Time) ([]dto.PoolVacancyDTO, error)
	UpdateCities(ctx context.Context, session authz.Session, shiftID uint64, payload dto.UpdateCitiesDTO) error
	AdjustVacancies(ctx context.Context, session authz.Session, id uint64, payload dto.AdjustVacanciesDTO) (*dto.ShiftCityPoolDTO, error)
	GetVacancies(ctx context.Context, id uint64, date time.Time) (*dto.PoolVacancyDTO, error)
	GetFreeVacancies(ctx context.Context, id uint64, from time.Time) ([]dto.FreeVacancyDTO, error)
	CheckEligibility(ctx context.Context, session authz.Session, shiftID, cityID uint64, date time.Time, rural bool) (*dto.EligibilityDTO, error)
}

type ShiftCityService struct {
	shiftCityRepo repositories.ShiftCityRepositoryInterface
	orderRepo     repositories.OrderRepositoryInterface
	txManager     repositories.TxManagerInterface
	horizonDays   int
	logger        *zap.Logger
}

func NewShiftCityService(
	shiftCityRepo repositories.ShiftCityRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	txManager repositories.TxManagerInterface,
	horizonDays int,
	logger *zap.Logger,
) ShiftCityServiceInterface {
	return &ShiftCityService{
		shiftCityRepo: shiftCityRepo,
		orderRepo:     orderRepo,
		txManager:     txManager,
		horizonDays:   horizonDays,
		logger:        logger,
	}
}

func (s *ShiftCityService) GetAll(ctx context.Context, filter types.Filter) ([]dto.ShiftCityPoolDTO, uint64, error) {
	pools, total, err := s.shiftCityRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ShiftCityPoolDTO, 0, len(pools))
	for i := range pools {
		out = append(out, dto.NewShiftCityPoolDTO(&pools[i]))
	}
	return out, total, nil
}

// GetByCityOnDate returns every shift pool of a city with its remaining
// capacity on the given date, the picture a dispatcher sees when picking
// a slot.
func (s *ShiftCityService) GetByCityOnDate(ctx context.Context, cityID uint64, date time.Time) ([]dto.PoolVacancyDTO, error) {
	pools, err := s.shiftCityRepo.GetByCity(ctx, cityID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PoolVacancyDTO, 0, len(pools))
	for i := range pools {
		pool := &pools[i]
		vac, err := s.poolVacancies(ctx, pool, date)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.PoolVacancyDTO{
			ShiftCityPoolDTO: dto.NewShiftCityPoolDTO(pool),
			Date:             utils.FormatDate(date),
			Amount:           vac.Amount,
			RuralAmount:      vac.RuralAmount,
		})
	}
	return out, nil
}

// UpdateCities replaces a shift's configured capacity for the listed
// cities in one administrator action.
func (s *ShiftCityService) UpdateCities(ctx context.Context, session authz.Session, shiftID uint64, payload dto.UpdateCitiesDTO) error {
	if !session.Caps.ShiftCity.Edit {
		return apperrors.NewPermissionRefusal("no permission to edit shift capacity")
	}

	rows := make([]entities.ShiftCityPool, 0, len(payload.Rows))
	for _, r := range payload.Rows {
		rows = append(rows, entities.ShiftCityPool{
			ShiftID:        shiftID,
			CityID:         r.CityID,
			Vacancies:      r.Vacancies,
			RuralVacancies: r.RuralVacancies,
		})
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.shiftCityRepo.UpsertCities(ctx, tx, shiftID, rows)
	})
	if err != nil {
		return err
	}
	s.logger.Info("shift capacity updated",
		zap.Uint64("shiftID", shiftID), zap.Int("cities", len(rows)),
		zap.Uint64("userID", session.UserID))
	return nil
}

func (s *ShiftCityService) AdjustVacancies(ctx context.Context, session authz.Session, id uint64, payload dto.AdjustVacanciesDTO) (*dto.ShiftCityPoolDTO, error) {
	if !session.Caps.ShiftCity.VacancyAdjust {
		return nil, apperrors.NewPermissionRefusal("no permission to adjust vacancies")
	}
	if payload.VacancyDelta == 0 && payload.RuralDelta == 0 {
		return nil, apperrors.NewGuardRefusal("nothing to adjust")
	}

	pool, err := s.shiftCityRepo.AdjustVacancies(ctx, id, payload.VacancyDelta, payload.RuralDelta)
	if err != nil {
		return nil, err
	}
	s.logger.Info("vacancies adjusted",
		zap.Uint64("poolID", id), zap.Int("vacancyDelta", payload.VacancyDelta),
		zap.Int("ruralDelta", payload.RuralDelta), zap.Uint64("userID", session.UserID))
	out := dto.NewShiftCityPoolDTO(pool)
	return &out, nil
}

func (s *ShiftCityService) GetVacancies(ctx context.Context, id uint64, date time.Time) (*dto.PoolVacancyDTO, error) {
	pool, err := s.shiftCityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	vac, err := s.poolVacancies(ctx, pool, date)
	if err != nil {
		return nil, err
	}
	return &dto.PoolVacancyDTO{
		ShiftCityPoolDTO: dto.NewShiftCityPoolDTO(pool),
		Date:             utils.FormatDate(date),
		Amount:           vac.Amount,
		RuralAmount:      vac.RuralAmount,
	}, nil
}

// GetFreeVacancies scans forward from the given date and returns the
// dates that still have room, up to the configured horizon.
func (s *ShiftCityService) GetFreeVacancies(ctx context.Context, id uint64, from time.Time) ([]dto.FreeVacancyDTO, error) {
	pool, err := s.shiftCityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]dto.FreeVacancyDTO, 0)
	for day := 0; day < s.horizonDays; day++ {
		date := from.AddDate(0, 0, day)
		vac, err := s.poolVacancies(ctx, pool, date)
		if err != nil {
			return nil, err
		}
		if vac.Amount == 0 && vac.RuralAmount == 0 {
			continue
		}
		out = append(out, dto.FreeVacancyDTO{
			Date:        utils.FormatDate(date),
			Amount:      vac.Amount,
			RuralAmount: vac.RuralAmount,
		})
	}
	return out, nil
}

// CheckEligibility answers "could this actor schedule here" without
// writing anything, so the UI can disable a slot up front.
func (s *ShiftCityService) CheckEligibility(ctx context.Context, session authz.Session, shiftID, cityID uint64, date time.Time, rural bool) (*dto.EligibilityDTO, error) {
	pool, err := s.shiftCityRepo.FindByShiftAndCity(ctx, shiftID, cityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &dto.EligibilityDTO{Reason: "shift is not available in this city"}, nil
		}
		return nil, err
	}
	vac, err := s.poolVacancies(ctx, pool, date)
	if err != nil {
		return nil, err
	}

	e := ScheduleEligibility(&session.Caps, rural, vac)
	return &dto.EligibilityDTO{
		Allowed:      e.Allowed,
		Reason:       e.Reason,
		SuggestRural: e.SuggestRural,
		Amount:       vac.Amount,
		RuralAmount:  vac.RuralAmount,
	}, nil
}

func (s *ShiftCityService) poolVacancies(ctx context.Context, pool *entities.ShiftCityPool, date time.Time) (VacancyCount, error) {
	orders, err := s.orderRepo.ListActiveOnDate(ctx, pool.ShiftID, pool.CityID, date, 0)
	if err != nil {
		return VacancyCount{}, err
	}
	return Vacancies(pool, orders), nil
}
