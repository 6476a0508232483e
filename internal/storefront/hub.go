package storefront

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"organico/internal/domain"
)

// Hub реестр workspace по клиентам; создаются при первом обращении
type Hub struct {
	deps Deps
	now  func() time.Time

	mu     sync.Mutex
	spaces map[domain.ClientID]*Workspace
	seen   map[domain.ClientID]time.Time
}

func NewHub(deps Deps) *Hub {
	return &Hub{
		deps:   deps,
		now:    time.Now,
		spaces: make(map[domain.ClientID]*Workspace),
		seen:   make(map[domain.ClientID]time.Time),
	}
}

func (h *Hub) Workspace(client domain.ClientID) *Workspace {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.spaces[client]
	if !ok {
		w = newWorkspace(client, &h.deps)
		h.spaces[client] = w
	}
	h.seen[client] = h.now()
	return w
}

// Forget удаляет состояние клиента (корзина теряется, как при закрытии вкладки)
func (h *Hub) Forget(client domain.ClientID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.spaces, client)
	delete(h.seen, client)
}

// Sweep удаляет клиентов, не обращавшихся дольше idle; возвращает число удалённых
func (h *Hub) Sweep(idle time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	cutoff := h.now().Add(-idle)
	n := 0
	for id, at := range h.seen {
		if at.Before(cutoff) {
			delete(h.spaces, id)
			delete(h.seen, id)
			n++
		}
	}
	return n
}

// StartSweeper раз в interval чистит простаивающих клиентов до отмены ctx
func (h *Hub) StartSweeper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := h.Sweep(idle); n > 0 && h.deps.Log != nil {
					h.deps.Log.InfoContext(ctx, "idle clients dropped", slog.Int("count", n))
				}
			}
		}
	}()
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.spaces)
}
