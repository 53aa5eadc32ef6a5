package services

import (
	"context"
	"fmt"

	"washplan/internal/database"
	"washplan/internal/types"

	txContext "washplan/internal/context"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// TransactionService runs a unit of work inside one database transaction. The
// transaction travels in the context so store calls made by fn join it.
type TransactionService struct {
	db  database.DB
	log logger.Logger
}

func NewTransactionService(db database.DB) *TransactionService {
	return &TransactionService{
		db:  db,
		log: logger.New("TransactionService"),
	}
}

// Execute commits when fn returns nil and rolls back otherwise. A panic in fn is rolled
// back and returned as an error. If that rollback fails the panic is re-raised.
func (ts *TransactionService) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) (err error) {
	log := ts.log.Function("Execute")

	if ts.db.SQL == nil {
		return fn(ctx, nil)
	}
	if tx, ok := txContext.GetTransaction(ctx); ok {
		return fn(ctx, tx)
	}

	tx := ts.db.SQLWithContext(ctx).Begin()
	if tx.Error != nil {
		return types.Persistence(log.Err("failed to begin transaction", tx.Error), "begin")
	}
	txCtx, runCommitHooks := txContext.WithCommitHooks(txContext.WithTransaction(ctx, tx))

	defer func() {
		if r := recover(); r != nil {
			panicErr := log.ErrMsg(fmt.Sprintf("panic during transaction: %v", r))

			if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
				log.Er("rollback after panic failed", rollbackErr, "panic", r)
				panic(fmt.Sprintf("transaction rollback failed: %v (panic: %v)", rollbackErr, r))
			}
			err = panicErr
		}
	}()

	if err = fn(txCtx, tx); err != nil {
		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			log.Er("rollback failed", rollbackErr, "originalError", err)
			return types.Persistence(rollbackErr, "rollback after %v", err)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return types.Persistence(log.Err("failed to commit transaction", err), "commit")
	}
	runCommitHooks()
	return nil
}
