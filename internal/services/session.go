package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldops/internal/authz"
	"fieldops/internal/repositories"
)

type SessionServiceInterface interface {
	// BuildSession resolves the actor's capability set for this request.
	BuildSession(ctx context.Context, userID, roleID uint64) (authz.Session, error)
}

type SessionService struct {
	permissionRepo repositories.PermissionRepositoryInterface
	cacheRepo      repositories.CacheRepositoryInterface
	cacheTTL       time.Duration
	logger         *zap.Logger
}

func NewSessionService(
	permissionRepo repositories.PermissionRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	cacheTTL time.Duration,
	logger *zap.Logger,
) SessionServiceInterface {
	return &SessionService{
		permissionRepo: permissionRepo,
		cacheRepo:      cacheRepo,
		cacheTTL:       cacheTTL,
		logger:         logger,
	}
}

func capabilitiesCacheKey(roleID uint64) string {
	return fmt.Sprintf("auth:capabilities:role:%d", roleID)
}

func (s *SessionService) BuildSession(ctx context.Context, userID, roleID uint64) (authz.Session, error) {
	caps, err := s.capabilitiesForRole(ctx, roleID)
	if err != nil {
		// A failed capability load denies everything rather than
		// granting anything. The zero Capabilities allows nothing.
		s.logger.Error("failed to load capabilities, denying all",
			zap.Uint64("roleID", roleID), zap.Error(err))
		return authz.Session{UserID: userID, RoleID: roleID}, nil
	}
	return authz.Session{UserID: userID, RoleID: roleID, Caps: caps}, nil
}

func (s *SessionService) capabilitiesForRole(ctx context.Context, roleID uint64) (authz.Capabilities, error) {
	key := capabilitiesCacheKey(roleID)

	if cached, err := s.cacheRepo.Get(ctx, key); err == nil && cached != "" {
		var caps authz.Capabilities
		if err := json.Unmarshal([]byte(cached), &caps); err == nil {
			return caps, nil
		}
		s.logger.Warn("corrupt capabilities cache entry, rebuilding", zap.String("key", key))
	}

	nodes, err := s.permissionRepo.GetGrantedNodes(ctx, roleID)
	if err != nil {
		return authz.Capabilities{}, err
	}
	caps := authz.Build(nodes)

	if payload, err := json.Marshal(caps); err == nil {
		if err := s.cacheRepo.Set(ctx, key, payload, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache capabilities", zap.String("key", key), zap.Error(err))
		}
	}
	return caps, nil
}

// InvalidateRole drops a role's cached capability set, used after
// permission grants change.
func (s *SessionService) InvalidateRole(ctx context.Context, roleID uint64) error {
	return s.cacheRepo.Del(ctx, capabilitiesCacheKey(roleID))
}
