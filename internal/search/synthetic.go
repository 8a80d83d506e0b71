package search

import (
	"fmt"
	"sync"

	"github.com/raphi011/appcat/internal/catalog"
)

// maxSynthetics bounds the memo; it is dropped wholesale once full.
const maxSynthetics = 256

type synthKey struct {
	kind catalog.Kind
	text string
}

// synthetics memoizes generated entries by kind and literal text, so
// retyping a query reuses the entries built the first time.
type synthetics struct {
	mu      sync.Mutex
	entries map[synthKey]catalog.Entry
}

func newSynthetics() *synthetics {
	return &synthetics{entries: make(map[synthKey]catalog.Entry)}
}

func (s *synthetics) get(kind catalog.Kind, text, payload string) catalog.Entry {
	key := synthKey{kind, text}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.Payload == payload {
		return e
	}
	if len(s.entries) >= maxSynthetics {
		clear(s.entries)
	}
	e := catalog.Entry{
		ID:      kind.String() + ":" + text,
		Kind:    kind,
		Label:   syntheticLabel(kind, text, payload),
		Payload: payload,
	}
	s.entries[key] = e
	return e
}

func (s *synthetics) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func syntheticLabel(kind catalog.Kind, text, payload string) string {
	switch kind {
	case catalog.KindMath:
		return text + " = " + payload
	case catalog.KindContact:
		return text
	case catalog.KindStoreSearch:
		return fmt.Sprintf("Search store for %q", text)
	case catalog.KindMapsSearch:
		return fmt.Sprintf("Search maps for %q", text)
	case catalog.KindVideoSearch:
		return fmt.Sprintf("Search videos for %q", text)
	case catalog.KindWebSearch:
		return fmt.Sprintf("Search the web for %q", text)
	}
	return text
}
