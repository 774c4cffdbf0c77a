package api

import (
	"errors"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/illegalcall/fitplan/internal/mapping"
)

var weekDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var errIncompleteProfile = errors.New("user profile incomplete: missing gender")

type recipe struct {
	ID          string
	Name        string
	Minutes     int
	Ingredients []string
}

// recipes is the fixed template plans are drawn from, keyed by wire meal type.
var recipes = map[string][]recipe{
	"Breakfast": {
		{"oat-berry-bowl", "Oat bowl with berries", 10, []string{"Oats", "Berries", "Milk"}},
		{"veggie-omelette", "Vegetable omelette", 15, []string{"Eggs", "Spinach", "Tomato"}},
		{"banana-toast", "Peanut butter banana toast", 5, []string{"Bread", "Peanut Butter", "Banana"}},
	},
	"Lunch": {
		{"chicken-rice", "Grilled chicken with rice", 25, []string{"Chicken", "Rice", "Broccoli"}},
		{"tuna-quinoa", "Tuna quinoa salad", 15, []string{"Tuna", "Quinoa", "Cucumber"}},
		{"bean-wrap", "Black bean wrap", 15, []string{"Beans", "Bread", "Avocado"}},
	},
	"Dinner": {
		{"salmon-potato", "Baked fish with sweet potato", 30, []string{"Fish", "Sweet Potato", "Olive Oil"}},
		{"turkey-pasta", "Turkey bolognese pasta", 30, []string{"Turkey", "Pasta", "Tomato"}},
		{"tofu-stirfry", "Tofu stir fry", 20, []string{"Tofu", "Rice", "Peppers"}},
	},
	"Snack": {
		{"greek-yogurt", "Greek yogurt with nuts", 2, []string{"Yogurt", "Nuts"}},
		{"apple-almonds", "Apple and almonds", 1, []string{"Apple", "Almonds"}},
		{"chia-pudding", "Chia pudding", 5, []string{"Chia", "Milk", "Berries"}},
	},
}

// shares is the part of the daily target each meal type gets before
// normalizing over the selected slots.
var shares = map[string]float64{
	"Breakfast": 0.25,
	"Lunch":     0.35,
	"Dinner":    0.30,
	"Snack":     0.10,
}

var activityFactors = map[string]float64{
	"Sedentary":         1.2,
	"Lightly Active":    1.375,
	"Moderately Active": 1.55,
	"Very Active":       1.725,
}

type planSummary struct {
	BMR            int                   `json:"bmr"`
	TDEE           int                   `json:"tdee"`
	TargetCalories int                   `json:"target_calories"`
	Plan           []mapping.ExternalDay `json:"plan"`
}

// planStore keeps the latest plan per user.
type planStore struct {
	mu     sync.Mutex
	latest map[string]planSummary
}

func newPlanStore() *planStore {
	return &planStore{latest: make(map[string]planSummary)}
}

func (p *planStore) save(userID string, summary planSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest[userID] = summary
}

func (p *planStore) get(userID string) (planSummary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.latest[userID]
	if !ok {
		return s, false
	}
	days := make([]mapping.ExternalDay, len(s.Plan))
	for i, d := range s.Plan {
		d.Meals = slices.Clone(d.Meals)
		days[i] = d
	}
	s.Plan = days
	return s, true
}

// swap replaces the first meal of mealType with another recipe of the same
// type, preferring recipes that mention one of keywords. The calories of the
// slot are kept.
func (p *planStore) swap(userID, mealType string, keywords []string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	summary, ok := p.latest[userID]
	if !ok {
		return "", false
	}
	for _, day := range summary.Plan {
		for i, meal := range day.Meals {
			if meal.MealType != mealType {
				continue
			}
			alt, ok := alternative(mealType, meal.RecipeID, keywords)
			if !ok {
				return "", false
			}
			day.Meals[i] = templateMeal(mealType, alt, meal.Calories)
			p.latest[userID] = summary
			return alt.Name, true
		}
	}
	return "", false
}

func alternative(mealType, exclude string, keywords []string) (recipe, bool) {
	var fallback *recipe
	for _, r := range recipes[mealType] {
		if r.ID == exclude {
			continue
		}
		if matches(r, keywords) {
			return r, true
		}
		if fallback == nil {
			fallback = &r
		}
	}
	if fallback == nil {
		return recipe{}, false
	}
	return *fallback, true
}

func matches(r recipe, keywords []string) bool {
	text := strings.ToLower(r.Name + " " + strings.Join(r.Ingredients, " "))
	for _, k := range keywords {
		if k != "" && strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// energy estimates BMR (revised Harris-Benedict), TDEE and the daily target
// adjusted for the goal.
func energy(p mapping.ExternalProfile) (bmr, tdee float64, target int, err error) {
	if p.Gender == nil {
		return 0, 0, 0, errIncompleteProfile
	}
	weight, height, age := deref(p.Weight), deref(p.Height), float64(deref(p.Age))

	if *p.Gender == "Male" {
		bmr = 88.362 + 13.397*weight + 4.799*height - 5.677*age
	} else {
		bmr = 447.593 + 9.247*weight + 3.098*height - 4.330*age
	}

	factor, ok := activityFactors[deref(p.ActivityLevel)]
	if !ok {
		factor = 1.2
	}
	tdee = bmr * factor

	adjusted := tdee
	switch deref(p.Goal) {
	case "Lose Weight":
		adjusted -= 500
	case "Gain Muscle":
		adjusted += 300
	}
	return bmr, tdee, int(adjusted), nil
}

// buildWeek lays the template over seven days. Low variety repeats the same
// recipe every day; otherwise recipes rotate.
func buildWeek(p mapping.ExternalProfile, target int) []mapping.ExternalDay {
	types := mealTypes(p)
	var total float64
	for _, t := range types {
		total += shares[t]
	}

	rotate := deref(p.VarietyLevel) != "Low"
	week := make([]mapping.ExternalDay, 0, len(weekDays))
	for d, name := range weekDays {
		day := mapping.ExternalDay{Day: name, TargetCalories: float64(target)}
		for i, t := range types {
			options := recipes[t]
			pick := i % len(options)
			if rotate {
				pick = (d + i) % len(options)
			}
			calories := math.Round(float64(target) * shares[t] / total)
			meal := templateMeal(t, options[pick], calories)
			day.Meals = append(day.Meals, meal)
			day.TotalCalories += meal.Calories
		}
		week = append(week, day)
	}
	return week
}

// mealTypes maps the user's slots to template meal types. Both snack slots
// draw from the snack recipes.
func mealTypes(p mapping.ExternalProfile) []string {
	slots := []string{"Breakfast", "Lunch", "Dinner"}
	if p.MealsPerDay != nil && len(*p.MealsPerDay) > 0 {
		slots = *p.MealsPerDay
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if strings.HasPrefix(s, "Snack") {
			s = "Snack"
		}
		if _, ok := recipes[s]; ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"Breakfast", "Lunch", "Dinner"}
	}
	return out
}

func templateMeal(mealType string, r recipe, calories float64) mapping.ExternalMeal {
	return mapping.ExternalMeal{
		RecipeID:    r.ID,
		Name:        r.Name,
		Calories:    calories,
		MealType:    mealType,
		PrepTime:    mapping.FormatMinutes(r.Minutes),
		Ingredients: slices.Clone(r.Ingredients),
	}
}

func (s *Server) handleGeneratePlan(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if !s.owns(c, userID) {
		return detail(c, fiber.StatusForbidden, "Not allowed to plan for this user")
	}

	profile, err := s.users.profile(userID)
	if errors.Is(err, errUserNotFound) {
		return detail(c, fiber.StatusNotFound, "User not found")
	}

	bmr, tdee, target, err := energy(profile)
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "User profile incomplete: missing gender")
	}

	summary := planSummary{
		BMR:            int(bmr),
		TDEE:           int(tdee),
		TargetCalories: target,
		Plan:           buildWeek(profile, target),
	}
	s.plans.save(userID, summary)

	s.logger.Info("Plan generated", "userID", userID, "target", target)
	return c.JSON(fiber.Map{
		"plan_id": uuid.NewString(),
		"summary": summary,
	})
}

func (s *Server) handleLatestPlan(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if !s.owns(c, userID) {
		return detail(c, fiber.StatusForbidden, "Not allowed to read this plan")
	}

	summary, ok := s.plans.get(userID)
	if !ok {
		return detail(c, fiber.StatusNotFound, "No plan found for user")
	}
	return c.JSON(fiber.Map{"summary": summary})
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
