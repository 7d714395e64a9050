package session

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront/internal/checkout"
	"storefront/internal/model"
)

// newSession - хелпер для создания сессии с минимальной корзиной
func newSession(t *testing.T, id string) *checkout.Session {
	t.Helper()
	lines := []model.CartLine{
		{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(100), CategoryTag: "clothing"},
	}
	session, err := checkout.NewSession(id, lines, nil, model.DefaultSettings(), "Cairo")
	assert.NoError(t, err)
	return session
}

func TestLRUStore_PutAndGet(t *testing.T) {
	store := NewLRUStore(2)
	assertions := assert.New(t)
	ctx := context.Background()

	// 1. Добавить первую сессию
	store.Put(ctx, newSession(t, "s1"))
	got, found := store.Get(ctx, "s1")
	assertions.True(found)
	assertions.Equal("s1", got.ID)

	// 2. Добавить вторую сессию
	store.Put(ctx, newSession(t, "s2"))
	got, found = store.Get(ctx, "s2")
	assertions.True(found)
	assertions.Equal("s2", got.ID)

	// 3. Проверить, что обе на месте
	_, found = store.Get(ctx, "s1")
	assertions.True(found)
}

func TestLRUStore_Eviction(t *testing.T) {
	store := NewLRUStore(2)
	assertions := assert.New(t)
	ctx := context.Background()

	store.Put(ctx, newSession(t, "s1"))
	store.Put(ctx, newSession(t, "s2"))

	// Добавить третью сессию, "s1" (самая старая) должна вытесниться
	store.Put(ctx, newSession(t, "s3"))

	_, found := store.Get(ctx, "s1")
	assertions.False(found, "s1 should be evicted")

	_, found = store.Get(ctx, "s2")
	assertions.True(found)
	_, found = store.Get(ctx, "s3")
	assertions.True(found)
}

func TestLRUStore_UsageUpdatesOrder(t *testing.T) {
	store := NewLRUStore(2)
	assertions := assert.New(t)
	ctx := context.Background()

	store.Put(ctx, newSession(t, "s1"))
	store.Put(ctx, newSession(t, "s2")) // "s1" - старая, "s2" - новая

	// 1. Обращаемся к "s1", она становится самой новой
	store.Get(ctx, "s1")

	// 2. Добавляем "s3". Теперь "s2" (как самая старая) должна вытесниться
	store.Put(ctx, newSession(t, "s3"))

	_, found := store.Get(ctx, "s2")
	assertions.False(found, "s2 should be evicted")

	_, found = store.Get(ctx, "s1")
	assertions.True(found)
	_, found = store.Get(ctx, "s3")
	assertions.True(found)
}

func TestLRUStore_UpdateSession(t *testing.T) {
	store := NewLRUStore(2)
	assertions := assert.New(t)
	ctx := context.Background()

	first := newSession(t, "s1")
	store.Put(ctx, first)

	// Повторный Put с тем же ID заменяет сессию
	second := newSession(t, "s1")
	store.Put(ctx, second)

	got, found := store.Get(ctx, "s1")
	assertions.True(found)
	assertions.Same(second, got)
}

func TestLRUStore_Delete(t *testing.T) {
	store := NewLRUStore(2)
	assertions := assert.New(t)
	ctx := context.Background()

	store.Put(ctx, newSession(t, "s1"))
	store.Delete(ctx, "s1")

	_, found := store.Get(ctx, "s1")
	assertions.False(found)

	// Удаление отсутствующей сессии безопасно
	store.Delete(ctx, "missing")
}

func TestLRUStore_ZeroCapacity(t *testing.T) {
	// Хранилище с 0 емкостью не должно ничего хранить
	store := NewLRUStore(0)
	assertions := assert.New(t)
	ctx := context.Background()

	store.Put(ctx, newSession(t, "s1"))
	_, found := store.Get(ctx, "s1")
	assertions.False(found)
}
