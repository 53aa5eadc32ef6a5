package context

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type contextKey string

const (
	TRANSACTION_KEY contextKey = "transaction"
	ACTOR_KEY       contextKey = "actor"
	COMMIT_HOOKS    contextKey = "commitHooks"
)

const SystemActor = "system"

// GetTransaction retrieves a transaction from the context
func GetTransaction(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(TRANSACTION_KEY).(*gorm.DB)
	return tx, ok
}

// WithTransaction adds a transaction to the context
func WithTransaction(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, TRANSACTION_KEY, tx)
}

type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// WithCommitHooks attaches a hook list for the transaction on ctx. The returned
// function runs the collected hooks in order and must be called only after commit.
func WithCommitHooks(ctx context.Context) (context.Context, func()) {
	hooks := &commitHooks{}
	run := func() {
		hooks.mu.Lock()
		fns := hooks.fns
		hooks.fns = nil
		hooks.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
	return context.WithValue(ctx, COMMIT_HOOKS, hooks), run
}

// AfterCommit defers fn until the transaction carried by ctx commits. Without a
// hook list on ctx, fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	hooks, ok := ctx.Value(COMMIT_HOOKS).(*commitHooks)
	if !ok {
		fn()
		return
	}
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	hooks.fns = append(hooks.fns, fn)
}

func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ACTOR_KEY, actor)
}

// GetActor returns the actor recorded on audit entries, SystemActor when unset.
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(ACTOR_KEY).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}
