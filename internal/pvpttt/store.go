package pvpttt

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Store keeps the active session of each channel.
type Store interface {
	// Claim saves s unless its channel already has a session.
	Claim(ctx context.Context, s *Session) error
	Load(ctx context.Context, channel string) (*Session, error)
	// Update runs fn on a copy of the channel's session and saves it when fn succeeds.
	Update(ctx context.Context, channel string, fn func(*Session) error) (*Session, error)
	Release(ctx context.Context, channel string) error
	Channels(ctx context.Context) ([]string, error)
	Close() error
}

// MemoryStore is the in-process registry.
type MemoryStore struct {
	mu        sync.RWMutex
	byChannel map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byChannel: make(map[string]*Session)}
}

func (m *MemoryStore) Claim(ctx context.Context, s *Session) error {
	if s == nil || strings.TrimSpace(s.Channel) == "" {
		return ErrInvalidArgs
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byChannel[s.Channel]; ok {
		return ErrGameInProgress
	}
	m.byChannel[s.Channel] = s.Clone()
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, channel string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byChannel[strings.TrimSpace(channel)]
	if !ok {
		return nil, ErrNoGame
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, channel string, fn func(*Session) error) (*Session, error) {
	channel = strings.TrimSpace(channel)
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byChannel[channel]
	if !ok {
		return nil, ErrNoGame
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	m.byChannel[channel] = next
	return next.Clone(), nil
}

func (m *MemoryStore) Release(ctx context.Context, channel string) error {
	m.mu.Lock()
	delete(m.byChannel, strings.TrimSpace(channel))
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Channels(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	out := make([]string, 0, len(m.byChannel))
	for ch := range m.byChannel {
		out = append(out, ch)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
