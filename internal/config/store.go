package config

import "sync"

// ChangeType represents the type of settings change.
type ChangeType int

const (
	// ChangeSet indicates a single value was set.
	ChangeSet ChangeType = iota

	// ChangeReload indicates the whole settings file was reloaded.
	ChangeReload
)

// Setting keys reported in Change events.
const (
	KeyShowPopularPatterns  = "show_popular_patterns"
	KeyShowKeywordArguments = "show_keyword_arguments"
)

// Change describes one settings change.
type Change struct {
	// Key is the changed setting; empty for reload events.
	Key string

	// Type is the type of change.
	Type ChangeType

	// Old and New carry the values for ChangeSet events.
	Old any
	New any
}

// Observer is called when settings change.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id    uint64
	store *Store
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.store != nil {
		s.store.unsubscribe(s.id)
	}
}

// Store holds the live settings and notifies observers of changes. It is
// safe for concurrent use. The accessor/mutator pairs for the two popup
// display toggles satisfy the intel package's SettingsSource.
type Store struct {
	mu        sync.RWMutex
	settings  Settings
	nextID    uint64
	observers map[uint64]Observer
}

// NewStore creates a store holding the given settings.
func NewStore(s Settings) *Store {
	return &Store{
		settings:  s,
		observers: make(map[uint64]Observer),
	}
}

// Settings returns a copy of the current settings.
func (st *Store) Settings() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings
}

// Replace swaps in a full new settings value and notifies observers with a
// reload event. Used by the live-reload watcher.
func (st *Store) Replace(s Settings) {
	st.mu.Lock()
	st.settings = s
	st.mu.Unlock()

	st.notify(Change{Type: ChangeReload})
}

// ShowPopularPatterns reports the popular-patterns toggle.
func (st *Store) ShowPopularPatterns() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings.ShowPopularPatterns
}

// ShowKeywordArguments reports the keyword-arguments toggle.
func (st *Store) ShowKeywordArguments() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings.ShowKeywordArguments
}

// SetShowPopularPatterns sets the popular-patterns toggle.
func (st *Store) SetShowPopularPatterns(v bool) {
	st.mu.Lock()
	old := st.settings.ShowPopularPatterns
	st.settings.ShowPopularPatterns = v
	st.mu.Unlock()

	if old != v {
		st.notify(Change{Key: KeyShowPopularPatterns, Type: ChangeSet, Old: old, New: v})
	}
}

// SetShowKeywordArguments sets the keyword-arguments toggle.
func (st *Store) SetShowKeywordArguments(v bool) {
	st.mu.Lock()
	old := st.settings.ShowKeywordArguments
	st.settings.ShowKeywordArguments = v
	st.mu.Unlock()

	if old != v {
		st.notify(Change{Key: KeyShowKeywordArguments, Type: ChangeSet, Old: old, New: v})
	}
}

// KeymapHint returns the keybinding hint for a toggle command, or "".
func (st *Store) KeymapHint(command string) string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	switch command {
	case "toggle_popular_patterns":
		return st.settings.Keymap.TogglePopularPatterns
	case "toggle_keyword_arguments":
		return st.settings.Keymap.ToggleKeywordArguments
	default:
		return ""
	}
}

// Subscribe registers an observer for settings changes.
func (st *Store) Subscribe(fn Observer) *Subscription {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.nextID++
	id := st.nextID
	st.observers[id] = fn
	return &Subscription{id: id, store: st}
}

func (st *Store) unsubscribe(id uint64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.observers, id)
}

// notify calls observers outside the settings lock so observers may read
// the store.
func (st *Store) notify(change Change) {
	st.mu.RLock()
	observers := make([]Observer, 0, len(st.observers))
	for _, fn := range st.observers {
		observers = append(observers, fn)
	}
	st.mu.RUnlock()

	for _, fn := range observers {
		fn(change)
	}
}
