// Package watch fans out workspace change notifications to open live
// streams. Writers call Publish after committing; every subscriber for that
// workspace gets a wake-up and re-reads a full snapshot.
package watch

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tandem/internal/metrics"
)

// Channel is the Postgres notification channel all app instances share.
const Channel = "tandem_workspace_changes"

// Hub multiplexes LISTEN notifications onto per-workspace subscriber sets.
// Notifications carry no payload beyond the workspace id; subscribers read
// fresh state themselves, so a dropped wake-up is repaired by the next one.
type Hub struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	subs map[int64]map[chan struct{}]struct{}
}

func NewHub(pool *pgxpool.Pool) *Hub {
	return &Hub{
		pool: pool,
		subs: make(map[int64]map[chan struct{}]struct{}),
	}
}

// Run listens for notifications until ctx is cancelled, reconnecting with
// backoff when the listening connection drops.
func (h *Hub) Run(ctx context.Context) {
	for {
		if err := h.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] watch: listener disconnected: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (h *Hub) listen(ctx context.Context) error {
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return err
	}
	for {
		note, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		workspaceID, err := strconv.ParseInt(note.Payload, 10, 64)
		if err != nil {
			log.Printf("[WARN] watch: ignoring malformed notification payload %q", note.Payload)
			continue
		}
		h.wake(workspaceID)
	}
}

func (h *Hub) wake(workspaceID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[workspaceID] {
		select {
		case ch <- struct{}{}:
		default:
			// Subscriber already has a pending wake-up.
		}
	}
}

// Subscribe registers for wake-ups on a workspace. The returned cancel
// function must be called when the stream closes.
func (h *Hub) Subscribe(workspaceID int64) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	set, ok := h.subs[workspaceID]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.subs[workspaceID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()
	metrics.WatchSubscriberAdded()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[workspaceID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, workspaceID)
			}
		}
		h.mu.Unlock()
		metrics.WatchSubscriberRemoved()
	}
	return ch, cancel
}

// Publish notifies every instance's subscribers that a workspace changed.
// The notification travels through Postgres so it reaches subscribers on
// other app instances too.
func (h *Hub) Publish(ctx context.Context, workspaceID int64) {
	if _, err := h.pool.Exec(ctx, "SELECT pg_notify($1, $2)", Channel, strconv.FormatInt(workspaceID, 10)); err != nil {
		log.Printf("[WARN] watch: publish for workspace %d failed: %v", workspaceID, err)
	}
}
