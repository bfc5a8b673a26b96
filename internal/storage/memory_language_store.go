// Package storage keeps per-chat state for the chat surfaces.
package storage

import (
	"context"
	"sync"

	"github.com/Brownie44l1/rice-leaf-api/internal/labels"
)

// MemoryLanguageStore is an in-memory chat ID to language map.
type MemoryLanguageStore struct {
	mu        sync.RWMutex
	languages map[int64]labels.Language
	fallback  labels.Language
}

// NewMemoryLanguageStore returns an empty store where unknown chats read as fallback.
func NewMemoryLanguageStore(fallback labels.Language) *MemoryLanguageStore {
	return &MemoryLanguageStore{
		languages: make(map[int64]labels.Language),
		fallback:  fallback,
	}
}

// Get returns the chat's language, or the fallback if none was set.
func (s *MemoryLanguageStore) Get(ctx context.Context, chatID int64) (labels.Language, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if lang, ok := s.languages[chatID]; ok {
		return lang, nil
	}
	return s.fallback, nil
}

// Set stores the chat's language.
func (s *MemoryLanguageStore) Set(ctx context.Context, chatID int64, lang labels.Language) error {
	s.mu.Lock()
	s.languages[chatID] = lang
	s.mu.Unlock()

	return nil
}

// Len returns the number of chats with an explicit language.
func (s *MemoryLanguageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.languages)
}
