// Package jobs runs scheduled maintenance against the store.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"tandem/internal/store"
)

// Cleaner purges expired sessions and stale invitations on a cron schedule.
type Cleaner struct {
	store *store.Store
	cron  *cron.Cron
}

func NewCleaner(st *store.Store) *Cleaner {
	return &Cleaner{store: st, cron: cron.New()}
}

// Start schedules the cleanup job. The schedule is standard five-field cron
// syntax from configuration.
func (c *Cleaner) Start(schedule string) error {
	if _, err := c.cron.AddFunc(schedule, c.runOnce); err != nil {
		return err
	}
	c.cron.Start()
	return nil
}

// Stop waits for a running job to finish.
func (c *Cleaner) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *Cleaner) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()
	sessions, err := c.store.Sessions.DeleteExpired(ctx, now)
	if err != nil {
		log.Printf("[ERROR] cleanup: delete expired sessions: %v", err)
	}
	invitations, err := c.store.Invitations.DeleteExpired(ctx, now)
	if err != nil {
		log.Printf("[ERROR] cleanup: delete expired invitations: %v", err)
	}
	if sessions > 0 || invitations > 0 {
		log.Printf("[INFO] cleanup: removed %d expired sessions, %d expired invitations", sessions, invitations)
	}
}
