package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"fieldops/internal/authz"
	"fieldops/internal/entities"
	"fieldops/internal/repositories"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/utils"
)

type ReportServiceInterface interface {
	// ScheduleForDate renders the day's scheduled orders as a workbook.
	ScheduleForDate(ctx context.Context, session authz.Session, date time.Time) (*excelize.File, string, error)
}

type ReportService struct {
	orderRepo     repositories.OrderRepositoryInterface
	shiftCityRepo repositories.ShiftCityRepositoryInterface
	logger        *zap.Logger
}

func NewReportService(
	orderRepo repositories.OrderRepositoryInterface,
	shiftCityRepo repositories.ShiftCityRepositoryInterface,
	logger *zap.Logger,
) ReportServiceInterface {
	return &ReportService{orderRepo: orderRepo, shiftCityRepo: shiftCityRepo, logger: logger}
}

var scheduleHeader = []string{"O.S.", "Client", "Date", "Shift", "City", "Rural", "Rescheduled", "Note"}

func (s *ReportService) ScheduleForDate(ctx context.Context, session authz.Session, date time.Time) (*excelize.File, string, error) {
	if !session.Caps.Report.Schedule {
		return nil, "", apperrors.NewPermissionRefusal("no permission to export the schedule")
	}

	orders, err := s.orderRepo.ListScheduledOnDate(ctx, date)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "Schedule"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range scheduleHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, "", fmt.Errorf("write report header: %w", err)
		}
	}

	poolNames := make(map[string][2]string)
	for row, order := range orders {
		shiftName, cityName := s.slotNames(ctx, poolNames, &order)
		values := []interface{}{
			order.OsCode,
			order.Client,
			utils.FormatDate(order.Date),
			shiftName,
			cityName,
			yesNo(order.Rural),
			yesNo(order.Rescheduled),
			order.Note.String,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", fmt.Errorf("write report row: %w", err)
			}
		}
	}

	filename := fmt.Sprintf("schedule-%s-%s.xlsx", utils.FormatDate(date), uuid.NewString()[:8])
	s.logger.Info("schedule report generated",
		zap.String("date", utils.FormatDate(date)), zap.Int("orders", len(orders)),
		zap.Uint64("userID", session.UserID))
	return f, filename, nil
}

// slotNames resolves shift and city display names, memoized per report
// so repeated slots cost one lookup.
func (s *ReportService) slotNames(ctx context.Context, memo map[string][2]string, order *entities.Order) (string, string) {
	key := fmt.Sprintf("%d:%d", order.ShiftID, order.CityID)
	if names, ok := memo[key]; ok {
		return names[0], names[1]
	}

	shiftName := fmt.Sprintf("shift %d", order.ShiftID)
	cityName := fmt.Sprintf("city %d", order.CityID)
	if pool, err := s.shiftCityRepo.FindByShiftAndCity(ctx, order.ShiftID, order.CityID); err == nil {
		shiftName, cityName = pool.ShiftName, pool.CityName
	}
	memo[key] = [2]string{shiftName, cityName}
	return shiftName, cityName
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
