package game

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages game registration and lookup for the command catalog.
type Registry struct {
	games map[string]Info
	mu    sync.RWMutex
}

// NewRegistry creates a new game registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[string]Info),
	}
}

// Register adds a game to the registry.
// If a game with the same command already exists, it will be replaced.
func (r *Registry) Register(g Info) error {
	if g == nil {
		return fmt.Errorf("cannot register nil game")
	}
	if g.Command() == "" {
		return fmt.Errorf("game command cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.Command()] = g
	return nil
}

// Get retrieves a game by its command.
func (r *Registry) Get(command string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[command]
	return g, ok
}

// List returns all registered games ordered by command.
// The returned slice is a copy, so modifications won't affect the registry.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	games := make([]Info, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].Command() < games[j].Command()
	})
	return games
}

// Count returns the number of registered games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
