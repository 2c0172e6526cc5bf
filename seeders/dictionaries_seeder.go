package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

var shiftsData = []string{
	"Morning (08:00-12:00)",
	"Afternoon (12:00-16:00)",
	"Evening (16:00-20:00)",
}

var citiesData = []struct {
	Name string
	UF   string
}{
	{"Campinas", "SP"},
	{"Sorocaba", "SP"},
	{"Santos", "SP"},
}

// seedDictionaries creates the shift and city dictionaries and a default
// capacity pool for every (shift, city) pair.
func seedDictionaries(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - seeding shifts, cities and capacity pools...")

	for _, name := range shiftsData {
		_, err := db.Exec(ctx, `
			INSERT INTO shifts (name, active, created_at, updated_at)
			VALUES ($1, true, NOW(), NOW())
			ON CONFLICT (name) DO NOTHING`, name)
		if err != nil {
			return fmt.Errorf("seed shift %q: %w", name, err)
		}
	}

	for _, city := range citiesData {
		_, err := db.Exec(ctx, `
			INSERT INTO cities (name, uf, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			ON CONFLICT (name) DO NOTHING`, city.Name, city.UF)
		if err != nil {
			return fmt.Errorf("seed city %q: %w", city.Name, err)
		}
	}

	_, err := db.Exec(ctx, `
		INSERT INTO shift_cities (shift_id, city_id, vacancies, rural_vacancies, created_at, updated_at)
		SELECT s.id, c.id, 5, 1, NOW(), NOW()
		FROM shifts s CROSS JOIN cities c
		ON CONFLICT (shift_id, city_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("seed capacity pools: %w", err)
	}
	return nil
}
