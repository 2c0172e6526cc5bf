package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fieldops/internal/entities"
)

type PermissionRepositoryInterface interface {
	// GetGrantedNodes returns the flat permission rows granted to a role,
	// leaves plus the module rows needed to resolve their paths.
	GetGrantedNodes(ctx context.Context, roleID uint64) ([]entities.PermissionNode, error)
}

type PermissionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewPermissionRepository(storage *pgxpool.Pool, logger *zap.Logger) PermissionRepositoryInterface {
	return &PermissionRepository{storage: storage, logger: logger}
}

func (r *PermissionRepository) GetGrantedNodes(ctx context.Context, roleID uint64) ([]entities.PermissionNode, error) {
	// Module rows of the granted leaves come along so the path walk has
	// its parents; they are filtered out of the grants by authz.Build.
	query := `
		WITH RECURSIVE granted AS (
			SELECT p.id, p.prefix, p.parent_permission_id, p.is_module
			FROM permissions p
			JOIN role_permissions rp ON rp.permission_id = p.id
			WHERE rp.role_id = $1
			UNION
			SELECT parent.id, parent.prefix, parent.parent_permission_id, parent.is_module
			FROM permissions parent
			JOIN granted g ON g.parent_permission_id = parent.id
		)
		SELECT id, prefix, parent_permission_id, is_module FROM granted`

	rows, err := r.storage.Query(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("query granted permissions: %w", err)
	}
	defer rows.Close()

	var nodes []entities.PermissionNode
	for rows.Next() {
		var n entities.PermissionNode
		if err := rows.Scan(&n.ID, &n.Prefix, &n.ParentID, &n.IsModule); err != nil {
			return nil, fmt.Errorf("scan permission node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Debug("granted permission nodes loaded",
		zap.Uint64("roleID", roleID), zap.Int("count", len(nodes)))
	return nodes, nil
}
