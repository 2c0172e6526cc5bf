package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldops/internal/authz"
	"fieldops/internal/entities"
)

type fakePermissionRepo struct {
	nodes map[uint64][]entities.PermissionNode
	calls int
	err   error
}

func (r *fakePermissionRepo) GetGrantedNodes(_ context.Context, roleID uint64) ([]entities.PermissionNode, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.nodes[roleID], nil
}

type fakeCacheRepo struct {
	values map[string]string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{values: make(map[string]string)}
}

func (r *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		r.values[key] = string(v)
	case string:
		r.values[key] = v
	}
	return nil
}

func (r *fakeCacheRepo) Get(_ context.Context, key string) (string, error) {
	v, ok := r.values[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return v, nil
}

func (r *fakeCacheRepo) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(r.values, k)
	}
	return nil
}

func scheduleNodes() []entities.PermissionNode {
	module := entities.PermissionNode{ID: 7, Prefix: "order.schedule", IsModule: true}
	leaf := entities.PermissionNode{ID: 12, Prefix: "rural"}
	leaf.ParentID.SetValid(7)
	return []entities.PermissionNode{module, leaf}
}

func TestBuildSessionResolvesCapabilities(t *testing.T) {
	perms := &fakePermissionRepo{nodes: map[uint64][]entities.PermissionNode{5: scheduleNodes()}}
	svc := NewSessionService(perms, newFakeCacheRepo(), time.Minute, zap.NewNop())

	session, err := svc.BuildSession(context.Background(), 42, 5)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), session.UserID)
	assert.Equal(t, uint64(5), session.RoleID)
	assert.True(t, session.Caps.Order.Schedule.Rural)
	assert.False(t, session.Caps.Order.Schedule.Allow)
}

func TestBuildSessionUsesCache(t *testing.T) {
	perms := &fakePermissionRepo{nodes: map[uint64][]entities.PermissionNode{5: scheduleNodes()}}
	svc := NewSessionService(perms, newFakeCacheRepo(), time.Minute, zap.NewNop())

	_, err := svc.BuildSession(context.Background(), 42, 5)
	require.NoError(t, err)
	session, err := svc.BuildSession(context.Background(), 43, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, perms.calls)
	assert.True(t, session.Caps.Order.Schedule.Rural)
}

func TestBuildSessionDeniesAllOnStoreFailure(t *testing.T) {
	perms := &fakePermissionRepo{err: errors.New("connection refused")}
	svc := NewSessionService(perms, newFakeCacheRepo(), time.Minute, zap.NewNop())

	session, err := svc.BuildSession(context.Background(), 42, 5)
	require.NoError(t, err)

	for _, path := range authz.KnownPaths() {
		assert.False(t, session.Caps.Has(path), path)
	}
}

func TestInvalidateRoleForcesReload(t *testing.T) {
	perms := &fakePermissionRepo{nodes: map[uint64][]entities.PermissionNode{5: scheduleNodes()}}
	svc := NewSessionService(perms, newFakeCacheRepo(), time.Minute, zap.NewNop()).(*SessionService)

	_, err := svc.BuildSession(context.Background(), 42, 5)
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateRole(context.Background(), 5))
	_, err = svc.BuildSession(context.Background(), 42, 5)
	require.NoError(t, err)

	assert.Equal(t, 2, perms.calls)
}
