package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldops/internal/repositories"
	"fieldops/internal/services"
	"fieldops/pkg/config"
	"fieldops/pkg/logger"
	"fieldops/pkg/middleware"
	"fieldops/pkg/service"
)

// InitRouter wires repositories, services and controllers and mounts
// every route group under /api.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, log *zap.Logger, cfg *config.Config) {
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger.Named(log, "auth"))
	txManager := repositories.NewTxManager(dbConn)

	userRepo := repositories.NewUserRepository(dbConn, logger.Named(log, "users"))
	permissionRepo := repositories.NewPermissionRepository(dbConn, logger.Named(log, "permissions"))
	contractRepo := repositories.NewContractRepository(dbConn)
	shiftCityRepo := repositories.NewShiftCityRepository(dbConn, logger.Named(log, "shift_cities"))
	orderRepo := repositories.NewOrderRepository(dbConn, logger.Named(log, "orders"))
	phoneRepo := repositories.NewPhoneNumberRepository(dbConn, logger.Named(log, "phone_numbers"))
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	sessionService := services.NewSessionService(
		permissionRepo, cacheRepo, cfg.Schedule.PermissionsCacheTTL, logger.Named(log, "session"))
	authService := services.NewAuthService(userRepo, jwtSvc, logger.Named(log, "auth"))
	orderService := services.NewOrderService(
		orderRepo, shiftCityRepo, contractRepo, txManager, logger.Named(log, "orders"))
	shiftCityService := services.NewShiftCityService(
		shiftCityRepo, orderRepo, txManager, cfg.Schedule.FreeVacancyHorizonDays, logger.Named(log, "shift_cities"))
	phoneService := services.NewPhoneNumberService(
		phoneRepo, contractRepo, txManager, cfg.Phone, logger.Named(log, "phone_numbers"))
	reportService := services.NewReportService(orderRepo, shiftCityRepo, logger.Named(log, "reports"))

	runAuthRouter(api, authMW, authService, log)
	runOrderRouter(api, authMW, orderService, sessionService, log)
	runShiftCityRouter(api, authMW, shiftCityService, sessionService, log)
	runPhoneNumberRouter(api, authMW, phoneService, sessionService, log)
	runReportRouter(api, authMW, reportService, sessionService, log)
}
