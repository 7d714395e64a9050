package session

import (
	"container/list"
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/checkout"
	"storefront/internal/metrics"
)

//go:generate mockgen -source=store.go -destination=./mocks/store_mock.go -package=mocks Store

// Store определяет интерфейс хранилища активных сессий оформления.
// Контекст добавлен для поддержки сквозной трассировки.
type Store interface {
	Put(ctx context.Context, session *checkout.Session)
	Get(ctx context.Context, id string) (*checkout.Session, bool)
	Delete(ctx context.Context, id string)
}

// lruStore хранит сессии с вытеснением по LRU: при переполнении самая
// давно не использовавшаяся сессия отбрасывается. Долговечность сессий
// сервис не гарантирует - это in-memory состояние одного оформления.
type lruStore struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	queue    *list.List
	tracer   trace.Tracer // Для трассировки
}

type storeItem struct {
	id      string
	session *checkout.Session
}

// NewLRUStore создает хранилище сессий с заданной емкостью.
func NewLRUStore(capacity int) Store {
	return &lruStore{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		queue:    list.New(),
		tracer:   otel.Tracer("session-store"),
	}
}

func (s *lruStore) Put(ctx context.Context, session *checkout.Session) {
	_, span := s.tracer.Start(ctx, "SessionStore.Put")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capacity <= 0 {
		return
	}

	if element, exists := s.items[session.ID]; exists {
		s.queue.MoveToFront(element)
		element.Value.(*storeItem).session = session
		return
	}

	if s.queue.Len() >= s.capacity {
		s.removeOldest()
	}

	item := &storeItem{id: session.ID, session: session}
	element := s.queue.PushFront(item)
	s.items[session.ID] = element

	metrics.SessionStoreSize.Set(float64(s.queue.Len()))
}

func (s *lruStore) Get(ctx context.Context, id string) (*checkout.Session, bool) {
	_, span := s.tracer.Start(ctx, "SessionStore.Get")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if element, exists := s.items[id]; exists {
		s.queue.MoveToFront(element)
		return element.Value.(*storeItem).session, true
	}

	return nil, false
}

// Delete удаляет сессию: вызывается после успешной отправки заказа.
func (s *lruStore) Delete(ctx context.Context, id string) {
	_, span := s.tracer.Start(ctx, "SessionStore.Delete")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if element, exists := s.items[id]; exists {
		s.queue.Remove(element)
		delete(s.items, id)
		metrics.SessionStoreSize.Set(float64(s.queue.Len()))
	}
}

// removeOldest удаляет самую старую сессию (внутренняя функция, мьютекс уже захвачен).
func (s *lruStore) removeOldest() {
	element := s.queue.Back()
	if element != nil {
		item := s.queue.Remove(element).(*storeItem)
		delete(s.items, item.id)

		metrics.SessionEvictions.Inc()
		metrics.SessionStoreSize.Set(float64(s.queue.Len()))
	}
}
