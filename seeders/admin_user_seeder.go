package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops/pkg/utils"
)

const adminEmail = "admin@fieldops.local"

// seedAdminUser creates the Admin role with every permission granted and
// one bootstrap account using it.
func seedAdminUser(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - seeding admin role and user...")

	var roleID uint64
	err := db.QueryRow(ctx, `
		INSERT INTO roles (name, created_at, updated_at)
		VALUES ('Admin', NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING id`,
	).Scan(&roleID)
	if err != nil {
		return fmt.Errorf("seed admin role: %w", err)
	}

	// grant everything, module rows included
	_, err = db.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, p.id FROM permissions p
		ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID)
	if err != nil {
		return fmt.Errorf("grant admin permissions: %w", err)
	}

	var existingID uint64
	err = db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", adminEmail).Scan(&existingID)
	if err == nil {
		log.Println("    - admin user already exists, skipping")
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin user: %w", err)
	}

	password, err := utils.HashPassword("admin123")
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	var cityID uint64
	if err := db.QueryRow(ctx, "SELECT id FROM cities ORDER BY id LIMIT 1").Scan(&cityID); err != nil {
		return fmt.Errorf("no cities seeded: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO users (fio, email, password, role_id, city_id, active, created_at, updated_at)
		VALUES ('Administrator', $1, $2, $3, $4, true, NOW(), NOW())`,
		adminEmail, password, roleID, cityID)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	log.Printf("    - admin user %s created", adminEmail)
	return nil
}
