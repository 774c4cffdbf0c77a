// Package onboarding drives the questionnaire that builds a user's profile
// and commits it before the user reaches the dashboard.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/illegalcall/fitplan/internal/models"
	"github.com/illegalcall/fitplan/internal/nav"
	"github.com/illegalcall/fitplan/internal/worker"
)

// DefaultName replaces an empty name at finish.
const DefaultName = "User"

var (
	ErrFirstStep        = errors.New("already at the first step")
	ErrTerminalStep     = errors.New("already at the last step")
	ErrWrongStep        = errors.New("action not available on this step")
	ErrCannotFinish     = errors.New("onboarding is not ready to finish")
	ErrFinishInProgress = errors.New("onboarding finish already in progress")
	ErrUnknownCategory  = errors.New("unknown food category")
)

// Session is the part of the session store the wizard commits through.
type Session interface {
	UserID() string
	Profile() *models.Profile
	CommitProfile(ctx context.Context, profile models.Profile) error
}

// PlanGenerator starts plan generation without blocking the caller.
type PlanGenerator interface {
	GenerateInBackground(ctx context.Context, userID string) *worker.Handle
}

// Wizard holds the current step and the draft profile. It is safe for
// concurrent use.
type Wizard struct {
	session   Session
	navigator nav.Navigator
	plans     PlanGenerator

	mu        sync.Mutex
	step      Step
	draft     models.Profile
	finishing bool
}

func NewWizard(session Session, navigator nav.Navigator, plans PlanGenerator) *Wizard {
	return &Wizard{
		session:   session,
		navigator: navigator,
		plans:     plans,
		step:      StepPlanningMode,
		draft:     DefaultDraft(),
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the profile collected so far.
func (w *Wizard) Draft() models.Profile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

// IsTerminal reports whether the current step is the last one for the chosen
// planning mode.
func (w *Wizard) IsTerminal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return next(w.step, w.draft.PlanningMode) == Terminal
}

// CanFinish reports whether the finish action is offered: the step is
// terminal and at least one meal slot is selected.
func (w *Wizard) CanFinish() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return next(w.step, w.draft.PlanningMode) == Terminal && len(w.draft.MealsPerDay) > 0
}

// Next moves forward. It fails on the terminal step, where Finish applies.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	to := next(w.step, w.draft.PlanningMode)
	if to == Terminal {
		return ErrTerminalStep
	}
	w.step = to
	return nil
}

func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step <= StepPlanningMode {
		return ErrFirstStep
	}
	w.step--
	return nil
}

// ChoosePlanningMode records the mode and advances; the first step has no
// separate next action.
func (w *Wizard) ChoosePlanningMode(mode models.PlanningMode) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepPlanningMode {
		return fmt.Errorf("%w: planning mode is chosen on step %d", ErrWrongStep, StepPlanningMode)
	}
	w.draft.PlanningMode = mode
	w.step = next(w.step, mode)
	return nil
}

// Update merges patch into the draft. It backs the free-form steps (diet,
// stats, preparation, variety).
func (w *Wizard) Update(patch models.ProfilePatch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = models.Merge(w.draft, patch)
}

func (w *Wizard) SetDietType(d models.DietType) {
	w.Update(models.ProfilePatch{DietType: &d})
}

// Stats are the anthropometrics collected on the stats step.
type Stats struct {
	Name            string
	Weight          float64
	TargetWeight    float64
	Height          float64
	WeightLossSpeed models.WeightLossSpeed
}

func (w *Wizard) SetStats(s Stats) {
	w.Update(models.ProfilePatch{
		Name:            &s.Name,
		Weight:          &s.Weight,
		TargetWeight:    &s.TargetWeight,
		Height:          &s.Height,
		WeightLossSpeed: &s.WeightLossSpeed,
	})
}

func (w *Wizard) SetPreparationStyle(p models.PreparationStyle) {
	w.Update(models.ProfilePatch{PreparationStyle: &p})
}

func (w *Wizard) SetVarietyLevel(v models.VarietyLevel) {
	w.Update(models.ProfilePatch{VarietyLevel: &v})
}

// ToggleMealSlot adds slot to the day, or removes it if already present.
func (w *Wizard) ToggleMealSlot(slot models.MealSlot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.MealsPerDay = toggle(w.draft.MealsPerDay, slot)
}

// ToggleFood adds or removes one food.
func (w *Wizard) ToggleFood(food string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.AvailableFoods = toggle(w.draft.AvailableFoods, food)
}

// CategorySelected reports whether every food of the category is selected.
func (w *Wizard) CategorySelected(id string) bool {
	c, ok := category(id)
	if !ok {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return containsAll(w.draft.AvailableFoods, c.Foods)
}

// ToggleCategory selects every food of a category, or clears them all when
// all are already selected.
func (w *Wizard) ToggleCategory(id string) error {
	c, ok := category(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, id)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	foods := w.draft.AvailableFoods
	if containsAll(foods, c.Foods) {
		w.draft.AvailableFoods = slices.DeleteFunc(slices.Clone(foods), func(f string) bool {
			return slices.Contains(c.Foods, f)
		})
		return nil
	}

	out := slices.Clone(foods)
	for _, f := range c.Foods {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	w.draft.AvailableFoods = out
	return nil
}

// Finish commits the draft and leaves onboarding:
//
//  1. an empty name becomes DefaultName;
//  2. the draft is merged over the cached profile with the completion flag set;
//  3. the profile is pushed and acknowledged before anything local changes;
//  4. the session replaces its cached profile;
//  5. the navigator goes to the dashboard;
//  6. plan generation starts in the background.
//
// A failed push aborts with nothing changed. A call while another is in
// flight does nothing and returns ErrFinishInProgress.
func (w *Wizard) Finish(ctx context.Context) (*worker.Handle, error) {
	w.mu.Lock()
	if w.finishing {
		w.mu.Unlock()
		return nil, ErrFinishInProgress
	}
	if next(w.step, w.draft.PlanningMode) != Terminal || len(w.draft.MealsPerDay) == 0 {
		w.mu.Unlock()
		return nil, ErrCannotFinish
	}
	w.finishing = true
	draft := w.draft.Clone()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.finishing = false
		w.mu.Unlock()
	}()

	if draft.Name == "" {
		draft.Name = DefaultName
	}

	var base models.Profile
	if cached := w.session.Profile(); cached != nil {
		base = *cached
	}
	profile := models.Merge(base, collected(draft))
	profile.IsOnboardingComplete = true

	if err := w.session.CommitProfile(ctx, profile); err != nil {
		slog.Error("Failed to finish onboarding", "error", err)
		return nil, fmt.Errorf("failed to finish onboarding: %w", err)
	}

	w.navigator.Navigate(nav.RouteDashboard)
	userID := w.session.UserID()
	slog.Info("Onboarding complete, generating plan", "userID", userID)
	return w.plans.GenerateInBackground(ctx, userID), nil
}

// collected turns the draft into a patch of the fields the questionnaire
// asks for. Country and region come from registration and are kept.
func collected(draft models.Profile) models.ProfilePatch {
	patch := draft.AsPatch()
	patch.Country = nil
	patch.Region = nil
	patch.IsOnboardingComplete = nil
	return patch
}

func toggle[T comparable](set []T, v T) []T {
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), v)
}

func containsAll(set, items []string) bool {
	for _, it := range items {
		if !slices.Contains(set, it) {
			return false
		}
	}
	return true
}
