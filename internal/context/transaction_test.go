package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTransactionContext(t *testing.T) {
	ctx := context.Background()

	_, ok := GetTransaction(ctx)
	assert.False(t, ok)

	tx := &gorm.DB{}
	got, ok := GetTransaction(WithTransaction(ctx, tx))
	assert.True(t, ok)
	assert.Same(t, tx, got)
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, SystemActor, GetActor(ctx))
	assert.Equal(t, "dispatcher", GetActor(WithActor(ctx, "dispatcher")))
	assert.Equal(t, SystemActor, GetActor(WithActor(ctx, "")))
}

func TestCommitHooks(t *testing.T) {
	t.Run("without hooks runs immediately", func(t *testing.T) {
		ran := false
		AfterCommit(context.Background(), func() { ran = true })
		assert.True(t, ran)
	})

	t.Run("deferred until run", func(t *testing.T) {
		ctx, run := WithCommitHooks(context.Background())
		var order []int
		AfterCommit(ctx, func() { order = append(order, 1) })
		AfterCommit(ctx, func() { order = append(order, 2) })
		assert.Empty(t, order)

		run()
		assert.Equal(t, []int{1, 2}, order)

		run()
		assert.Equal(t, []int{1, 2}, order)
	})
}
