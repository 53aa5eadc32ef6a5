package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"washplan/internal/database"
	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/repositories/memory"
	"washplan/internal/services"
	"washplan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryOpener(t *testing.T) (*memory.Store, *models.Customer, Opener) {
	t.Helper()

	ctx := context.Background()
	store := memory.New()
	rule := &models.WashRule{Name: "weekly", SingleCarPattern: []models.WashType{models.WashTypeExterior}}
	require.NoError(t, store.SaveRule(ctx, rule))
	require.NoError(t, store.SaveWorker(ctx, &models.Worker{Name: "ana", Active: true}))
	customer := &models.Customer{
		Name:   "acme",
		RuleID: rule.ID,
		Active: true,
		Cars:   []models.Car{{Plate: "ABC123"}},
		Slots:  []models.VisitSlot{{VisitIndex: 1, Day: "Monday", Time: "9:00 AM"}},
	}
	require.NoError(t, store.SaveCustomer(ctx, customer))

	open := func() (*Runtime, error) {
		return &Runtime{Service: services.New(database.DB{}, store, services.Options{})}, nil
	}
	return store, customer, open
}

func execute(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRegenerateCommand(t *testing.T) {
	store, customer, open := memoryOpener(t)

	out, err := execute(t, open, "regenerate", "--week", "2025-W42", "--actor", "ops")
	require.NoError(t, err)

	var result types.RegenerationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Created)

	entries, err := store.QueryAudit(context.Background(), repositories.AuditQuery{CustomerID: customer.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ops", entries[0].Actor)

	_, err = execute(t, open, "regenerate", "--week", "someday")
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestConflictsCommand(t *testing.T) {
	_, _, open := memoryOpener(t)

	_, err := execute(t, open, "regenerate", "--week", "2025-W42")
	require.NoError(t, err)

	out, err := execute(t, open, "conflicts", "--week", "2025-W42")
	require.NoError(t, err)
	assert.Contains(t, out, `"week": "2025-W42"`)
}

func TestCompleteVisitsCommand(t *testing.T) {
	_, _, open := memoryOpener(t)

	_, err := execute(t, open, "regenerate", "--week", "2025-W42")
	require.NoError(t, err)

	out, err := execute(t, open, "complete-visits", "--as-of", "2025-10-20")
	require.NoError(t, err)
	assert.Contains(t, out, `"completed": 1`)

	_, err = execute(t, open, "complete-visits", "--as-of", "20/10/2025")
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestOpenerFailure(t *testing.T) {
	open := func() (*Runtime, error) { return nil, assert.AnError }

	_, err := execute(t, open, "conflicts", "--week", "2025-W42")
	assert.ErrorIs(t, err, assert.AnError)
}
