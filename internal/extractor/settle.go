package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/stupside/storyfetch/internal/app"
)

// readiness is what readinessJS reports.
type readiness struct {
	Ready bool `json:"ready"`
	Nodes int  `json:"nodes"`
}

// settle waits for the page to react to the previous interaction. In sleep
// mode it waits the full ceiling. In poll mode it returns as soon as the
// document is complete and its element count is unchanged between two polls,
// and never later than the ceiling.
func (w *walker) settle(ctx context.Context, ceiling time.Duration) error {
	if ceiling <= 0 {
		return interrupted(ctx)
	}

	if w.cfg.Settle != app.SettlePoll || w.cfg.PollInterval <= 0 {
		return sleep(ctx, ceiling)
	}

	deadline := time.NewTimer(ceiling)
	defer deadline.Stop()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-ctx.Done():
			return interrupted(ctx)
		case <-deadline.C:
			return nil
		case <-ticker.C:
			var r readiness
			if err := w.page.Evaluate(readinessJS, &r); err != nil {
				continue
			}
			if r.Ready && r.Nodes == last {
				return nil
			}
			last = r.Nodes
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return interrupted(ctx)
	}
}

func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("walk interrupted: %w", err)
	}
	return nil
}
