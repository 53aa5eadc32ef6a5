package seed

import (
	"context"

	"washplan/internal/database"
	"washplan/internal/repositories"
	"washplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

const DEFAULT_SEED_FILE = "cmd/migration/seed/seed.yaml"

// Seed upserts the rules, workers and customers described by the YAML file at path.
func Seed(ctx context.Context, db database.DB, path string, log logger.Logger) error {
	log = log.Function("Seed")
	if path == "" {
		path = DEFAULT_SEED_FILE
	}
	log.Info("Seeding schedule data", "file", path)

	file, err := services.LoadSeedFile(path)
	if err != nil {
		return log.Err("failed to load seed file", err, "file", path)
	}

	store := repositories.New(db, 0).Schedule
	seeder := services.NewSeedService(store, services.NewTransactionService(db))

	result, err := seeder.Apply(ctx, file)
	if err != nil {
		return log.Err("failed to apply seed", err)
	}

	log.Info(
		"Seed complete",
		"rules", result.Rules,
		"workers", result.Workers,
		"customers", result.Customers,
	)
	return nil
}
