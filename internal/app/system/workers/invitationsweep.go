// internal/app/system/workers/invitationsweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// InvitationExpirer persists "expired" on overdue pending invitations and
// reports how many it changed. *membership.Engine satisfies it.
type InvitationExpirer interface {
	ExpireInvitations(ctx context.Context) (int64, error)
}

// InvitationSweep is a background worker that expires overdue invitations.
// Reads already treat a lapsed invitation as expired; the sweep makes the
// stored status agree.
type InvitationSweep struct {
	expirer  InvitationExpirer
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewInvitationSweep creates a sweep worker that runs every interval.
func NewInvitationSweep(expirer InvitationExpirer, logger *zap.Logger, interval time.Duration) *InvitationSweep {
	if interval <= 0 {
		interval = time.Hour
	}
	return &InvitationSweep{
		expirer:  expirer,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one sweep immediately, then begins the background loop.
func (w *InvitationSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("invitation sweep worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for the current sweep to finish.
func (w *InvitationSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("invitation sweep worker stopped")
}

func (w *InvitationSweep) run() {
	defer w.wg.Done()

	w.Sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs a single expiry pass and returns the number of invitations expired.
func (w *InvitationSweep) Sweep() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Sweep())
	defer cancel()

	count, err := w.expirer.ExpireInvitations(ctx)
	if err != nil {
		w.log.Error("failed to expire invitations", zap.Error(err))
		return 0
	}
	if count > 0 {
		w.log.Info("expired overdue invitations", zap.Int64("count", count))
	}
	return count
}
