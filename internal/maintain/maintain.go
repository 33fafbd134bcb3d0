// Package maintain runs confidence decay and pruning on a cron schedule.
package maintain

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/agentmem/agent-memory/internal/observe"
)

// Store is the part of the memory store that maintenance touches.
type Store interface {
	Agents() []string
	DecayConfidence(agentID string, rate float64) int
	PruneExpired(agentID string) int
}

// Report summarizes one maintenance pass.
type Report struct {
	RanAt   time.Time `json:"ran_at"`
	Agents  int       `json:"agents"`
	Decayed int       `json:"decayed"`
	Pruned  int       `json:"pruned"`
}

// Runner decays every agent's memories and then prunes the store.
type Runner struct {
	store Store
	expr  string
	rate  float64
	obs   *observe.Observer
	now   func() time.Time
}

// New validates expr and returns a Runner.
func New(s Store, expr string, rate float64, obs *observe.Observer) (*Runner, error) {
	if !gronx.New().IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression: %s", expr)
	}
	if obs == nil {
		obs = observe.Discard()
	}
	return &Runner{store: s, expr: expr, rate: rate, obs: obs, now: time.Now}, nil
}

// Next returns the first scheduled run strictly after t.
func (r *Runner) Next(t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(r.expr, t, false)
}

// RunOnce performs a single decay and prune pass.
func (r *Runner) RunOnce(ctx context.Context) Report {
	_, span := r.obs.StartSpan(ctx, "memory.maintain")
	defer span.End()

	rep := Report{RanAt: r.now().UTC()}
	agents := r.store.Agents()
	rep.Agents = len(agents)
	for _, a := range agents {
		rep.Decayed += r.store.DecayConfidence(a, r.rate)
	}
	rep.Pruned = r.store.PruneExpired("")

	span.SetAttributes(
		attribute.Int("memory.agents", rep.Agents),
		attribute.Int("memory.decayed", rep.Decayed),
		attribute.Int("memory.pruned", rep.Pruned),
	)
	r.obs.Log().Info().
		Int("agents", rep.Agents).
		Int("decayed", rep.Decayed).
		Int("pruned", rep.Pruned).
		Msg("maintenance run")
	return rep
}

// Run executes RunOnce at every scheduled tick until ctx is done. Each
// report is passed to onRun when it is non-nil.
func (r *Runner) Run(ctx context.Context, onRun func(Report)) error {
	for {
		next, err := r.Next(r.now())
		if err != nil {
			return fmt.Errorf("next tick: %w", err)
		}
		wait := next.Sub(r.now())
		if wait < 0 {
			wait = 0
		}
		r.obs.Log().Info().Str("next", next.Format(time.RFC3339)).Msg("maintenance scheduled")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		rep := r.RunOnce(ctx)
		if onRun != nil {
			onRun(rep)
		}
	}
}
