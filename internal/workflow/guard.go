package workflow

import (
	"errors"
	"sync"
)

// ErrInProgress is returned when the same action is already running.
var ErrInProgress = errors.New("action already in progress")

// Guard rejects duplicate submissions of an action while the first one is in
// flight. It does not queue or serialize; the duplicate fails immediately.
type Guard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{running: make(map[string]struct{})}
}

// Begin claims key. The returned func releases it and must be called once
// the action finishes.
func (g *Guard) Begin(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[key]; busy {
		return nil, ErrInProgress
	}
	g.running[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, key)
			g.mu.Unlock()
		})
	}, nil
}
