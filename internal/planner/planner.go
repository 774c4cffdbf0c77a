// Package planner caches the user's weekly meal plan.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/illegalcall/fitplan/internal/events"
	"github.com/illegalcall/fitplan/internal/models"
	"github.com/illegalcall/fitplan/internal/session"
	"github.com/illegalcall/fitplan/internal/worker"
)

var (
	// ErrGenerationFailed wraps any failure of a foreground plan generation.
	ErrGenerationFailed = errors.New("plan generation failed")
	ErrDayNotFound      = errors.New("day not in plan")
	ErrMealNotFound     = errors.New("meal index out of range")
)

type Remote interface {
	GeneratePlan(ctx context.Context, userID string) ([]models.DayPlan, error)
	LatestPlan(ctx context.Context, userID string) ([]models.DayPlan, error)
}

// Identity reports the user the session currently belongs to.
type Identity interface {
	UserID() string
}

// Planner holds the plan last received from the service. Writers do not
// coordinate: the last completed write wins.
type Planner struct {
	remote   Remote
	identity Identity
	runner   session.Spawner
	sink     events.Sink

	mu   sync.RWMutex
	plan []models.DayPlan
}

func New(remote Remote, identity Identity, runner session.Spawner, sink events.Sink) *Planner {
	return &Planner{
		remote:   remote,
		identity: identity,
		runner:   runner,
		sink:     sink,
		plan:     []models.DayPlan{},
	}
}

// Plan returns a copy of the cached plan. It is empty, never nil, before the
// first load.
func (p *Planner) Plan() []models.DayPlan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return models.ClonePlan(p.plan)
}

// Day returns a copy of the named day.
func (p *Planner) Day(day string) (models.DayPlan, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, d := range p.plan {
		if d.Day == day {
			return d.Clone(), true
		}
	}
	return models.DayPlan{}, false
}

// DailyMacros sums calories and macros over the named day's meals.
func (p *Planner) DailyMacros(day string) (models.DailyTotals, bool) {
	d, ok := p.Day(day)
	if !ok {
		return models.DailyTotals{}, false
	}
	return d.Totals(), true
}

// Load fetches the latest plan for the current user. A user without a plan
// gets an empty cache.
func (p *Planner) Load(ctx context.Context) error {
	userID := p.identity.UserID()
	if userID == "" {
		return session.ErrNoSession
	}

	plan, err := p.remote.LatestPlan(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	p.apply(userID, plan)
	return nil
}

// Regenerate asks the service for a new plan and waits for it.
func (p *Planner) Regenerate(ctx context.Context) error {
	userID := p.identity.UserID()
	if userID == "" {
		return session.ErrNoSession
	}

	plan, err := p.remote.GeneratePlan(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	p.apply(userID, plan)
	p.announceGenerated(ctx, userID)
	return nil
}

// GenerateInBackground generates a plan for userID and then reloads the
// latest one. Failures are only reported to the event sink.
func (p *Planner) GenerateInBackground(ctx context.Context, userID string) *worker.Handle {
	return p.runner.Spawn(ctx, events.TaskPlanGeneration, userID, func(ctx context.Context) error {
		plan, err := p.remote.GeneratePlan(ctx, userID)
		if err != nil {
			return err
		}
		p.apply(userID, plan)
		p.announceGenerated(ctx, userID)

		if err := p.refresh(ctx, userID); err != nil {
			slog.Warn("Failed to reload plan after generation", "userID", userID, "error", err)
			p.publish(ctx, events.Event{Type: events.TypePlanRefreshFailed, UserID: userID, Attempts: 1, Error: err.Error()})
		}
		return nil
	})
}

// RefreshInBackground reloads the latest plan for userID.
func (p *Planner) RefreshInBackground(ctx context.Context, userID string) *worker.Handle {
	return p.runner.Spawn(ctx, events.TaskPlanRefresh, userID, func(ctx context.Context) error {
		return p.refresh(ctx, userID)
	})
}

// SwapMeal replaces one meal of a day and recomputes the day's total.
func (p *Planner) SwapMeal(day string, index int, meal models.Meal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.plan {
		if p.plan[i].Day != day {
			continue
		}
		if index < 0 || index >= len(p.plan[i].Meals) {
			return fmt.Errorf("%w: %d", ErrMealNotFound, index)
		}
		if meal.Ingredients != nil {
			meal.Ingredients = append([]string(nil), meal.Ingredients...)
		}
		p.plan[i].Meals[index] = meal
		p.plan[i].RecomputeTotal()
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDayNotFound, day)
}

// Reset empties the cache, e.g. on logout.
func (p *Planner) Reset() {
	p.mu.Lock()
	p.plan = []models.DayPlan{}
	p.mu.Unlock()
}

func (p *Planner) refresh(ctx context.Context, userID string) error {
	plan, err := p.remote.LatestPlan(ctx, userID)
	if err != nil {
		return err
	}
	p.apply(userID, plan)
	return nil
}

// apply stores plan unless the session moved on to another user. The check
// and the write share p.mu so a concurrent Reset cannot fall between them.
func (p *Planner) apply(userID string, plan []models.DayPlan) {
	if plan == nil {
		plan = []models.DayPlan{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if current := p.identity.UserID(); current != userID {
		slog.Info("Dropping plan for a previous session", "userID", userID)
		return
	}
	p.plan = models.ClonePlan(plan)
}

func (p *Planner) announceGenerated(ctx context.Context, userID string) {
	p.publish(ctx, events.Event{Type: events.TypePlanGenerated, UserID: userID})
}

func (p *Planner) publish(ctx context.Context, ev events.Event) {
	if p.sink == nil {
		return
	}
	ev.Time = time.Now().UTC()
	if err := p.sink.Publish(ctx, ev); err != nil {
		slog.Error("Failed to publish plan event", "type", ev.Type, "error", err)
	}
}
