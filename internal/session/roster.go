package session

import (
	"sync"

	"banana-bot/internal/apperr"
)

// ErrUserBusy is returned when a participant already plays elsewhere.
var ErrUserBusy = apperr.Input("one of the players is already in a game")

// Roster tracks which users are committed to a session, across chats.
type Roster struct {
	mu    sync.Mutex
	users map[int64]int64
}

// NewRoster creates an empty Roster.
func NewRoster() *Roster {
	return &Roster{users: make(map[int64]int64)}
}

// Claim assigns every user to chatID, or none of them if any is already taken.
func (r *Roster) Claim(chatID int64, users ...int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range users {
		if _, busy := r.users[u]; busy {
			return ErrUserBusy
		}
	}
	for _, u := range users {
		r.users[u] = chatID
	}
	return nil
}

// Release frees users that are still assigned to chatID.
func (r *Roster) Release(chatID int64, users ...int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range users {
		if r.users[u] == chatID {
			delete(r.users, u)
		}
	}
}

// ChatOf returns the chat a user is committed to.
func (r *Roster) ChatOf(userID int64) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chatID, ok := r.users[userID]
	return chatID, ok
}
