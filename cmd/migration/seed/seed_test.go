package seed

import (
	"context"
	"testing"

	"washplan/internal/database"
	"washplan/internal/repositories/memory"
	"washplan/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledSeedFile(t *testing.T) {
	file, err := services.LoadSeedFile("seed.yaml")
	require.NoError(t, err)

	store := memory.New()
	seeder := services.NewSeedService(store, services.NewTransactionService(database.DB{}))

	result, err := seeder.Apply(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, services.SeedResult{Rules: 3, Workers: 4, Customers: 3}, result)

	customers, err := store.ListActiveCustomers(context.Background())
	require.NoError(t, err)
	assert.Len(t, customers, 3)

	workers, err := store.ListActiveWorkers(context.Background())
	require.NoError(t, err)
	assert.Len(t, workers, 3)
}
