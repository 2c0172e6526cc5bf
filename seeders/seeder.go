package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunAll seeds the dictionaries, the permission tree and the bootstrap
// admin account. Every seeder is idempotent.
func RunAll(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("running seeders...")

	if err := seedPermissions(ctx, db); err != nil {
		return err
	}
	if err := seedDictionaries(ctx, db); err != nil {
		return err
	}
	if err := seedAdminUser(ctx, db); err != nil {
		return err
	}

	log.Println("seeders finished")
	return nil
}
