package cart

import (
	"context"
	"sync"
	"time"
)

const defaultTTL = 24 * time.Hour

type session struct {
	cart     *Cart
	lastSeen time.Time
}

// Store хранит корзины по идентификатору сессии в памяти процесса.
// Неактивные сессии удаляются по истечении ttl; между перезапусками корзины не сохраняются.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore создаёт хранилище корзин. Неположительный ttl заменяется значением по умолчанию.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Update выполняет fn над корзиной сессии под блокировкой, создавая корзину при необходимости.
func (s *Store) Update(sessionID string, fn func(c *Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{cart: New()}
		s.sessions[sessionID] = sess
	}
	sess.lastSeen = s.now()

	return fn(sess.cart)
}

// View выполняет fn над корзиной сессии только для чтения. Для неизвестной сессии передаётся пустая корзина.
func (s *Store) View(sessionID string, fn func(c *Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		fn(New())
		return
	}
	sess.lastSeen = s.now()
	fn(sess.cart)
}

// Len возвращает число активных сессий.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict удаляет сессии, неактивные дольше ttl, и возвращает их число.
func (s *Store) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run периодически удаляет неактивные сессии до отмены контекста.
func (s *Store) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evict()
		}
	}
}
