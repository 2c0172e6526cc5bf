package seeders

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops/internal/authz"
)

// seedPermissions materializes every known capability path as a module
// row plus a leaf row linked to it, the flat parent-linked shape the
// oracle resolves at session build.
func seedPermissions(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - seeding permissions...")

	paths := authz.KnownPaths()
	sort.Strings(paths)

	for _, path := range paths {
		idx := strings.LastIndex(path, ".")
		modulePrefix, leafPrefix := path[:idx], path[idx+1:]

		var moduleID uint64
		err := db.QueryRow(ctx, `
			INSERT INTO permissions (prefix, parent_permission_id, is_module)
			VALUES ($1, NULL, true)
			ON CONFLICT (prefix) WHERE is_module DO UPDATE SET prefix = EXCLUDED.prefix
			RETURNING id`, modulePrefix,
		).Scan(&moduleID)
		if err != nil {
			return fmt.Errorf("seed permission module %q: %w", modulePrefix, err)
		}

		_, err = db.Exec(ctx, `
			INSERT INTO permissions (prefix, parent_permission_id, is_module)
			VALUES ($1, $2, false)
			ON CONFLICT DO NOTHING`,
			leafPrefix, moduleID,
		)
		if err != nil {
			return fmt.Errorf("seed permission leaf %q: %w", path, err)
		}
	}

	log.Printf("    - %d capability paths ensured", len(paths))
	return nil
}
