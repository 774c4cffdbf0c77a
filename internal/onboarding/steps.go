package onboarding

import (
	"fmt"

	"github.com/illegalcall/fitplan/internal/models"
)

type Step int

const (
	// Terminal is not a step: it is the transition target meaning "finish".
	Terminal Step = iota
	StepPlanningMode
	StepDietType
	StepStats
	StepMeals
	StepPreparation
	StepVariety
	StepFoods
)

// StepCount is the number of steps in the longest path.
const StepCount = int(StepFoods)

var stepNames = map[Step]string{
	Terminal:         "terminal",
	StepPlanningMode: "planning_mode",
	StepDietType:     "diet_type",
	StepStats:        "stats",
	StepMeals:        "meals",
	StepPreparation:  "preparation",
	StepVariety:      "variety",
	StepFoods:        "foods",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

type transition struct {
	from Step
	mode models.PlanningMode
}

// transitions is the forward table. Automatic planning skips preparation,
// variety and foods: the meals step is its last.
var transitions = map[transition]Step{
	{StepPlanningMode, models.PlanningAutomatic}: StepDietType,
	{StepPlanningMode, models.PlanningCustom}:    StepDietType,
	{StepDietType, models.PlanningAutomatic}:     StepStats,
	{StepDietType, models.PlanningCustom}:        StepStats,
	{StepStats, models.PlanningAutomatic}:        StepMeals,
	{StepStats, models.PlanningCustom}:           StepMeals,
	{StepMeals, models.PlanningAutomatic}:        Terminal,
	{StepMeals, models.PlanningCustom}:           StepPreparation,
	{StepPreparation, models.PlanningAutomatic}:  Terminal,
	{StepPreparation, models.PlanningCustom}:     StepVariety,
	{StepVariety, models.PlanningAutomatic}:      Terminal,
	{StepVariety, models.PlanningCustom}:         StepFoods,
	{StepFoods, models.PlanningAutomatic}:        Terminal,
	{StepFoods, models.PlanningCustom}:           Terminal,
}

// next returns the step after from. Modes outside the vocabulary follow the
// custom path.
func next(from Step, mode models.PlanningMode) Step {
	if mode != models.PlanningAutomatic {
		mode = models.PlanningCustom
	}
	if to, ok := transitions[transition{from, mode}]; ok {
		return to
	}
	return Terminal
}

// FoodCategory is one group of the food catalog.
type FoodCategory struct {
	ID    string
	Foods []string
}

// Catalog lists the foods offered on the last step, by category.
var Catalog = []FoodCategory{
	{ID: "proteins", Foods: []string{"Chicken", "Beef", "Fish", "Tuna", "Eggs", "Turkey", "Tofu", "Pork"}},
	{ID: "carbs", Foods: []string{"Rice", "Potato", "Sweet Potato", "Oats", "Pasta", "Bread", "Quinoa", "Beans"}},
	{ID: "fats", Foods: []string{"Avocado", "Nuts", "Almonds", "Olive Oil", "Chia", "Peanut Butter"}},
	{ID: "fruits", Foods: []string{"Banana", "Apple", "Berries", "Orange", "Pineapple", "Grapes"}},
}

func category(id string) (FoodCategory, bool) {
	for _, c := range Catalog {
		if c.ID == id {
			return c, true
		}
	}
	return FoodCategory{}, false
}

// DefaultDraft is the draft a new wizard starts from.
func DefaultDraft() models.Profile {
	return models.Profile{
		Age:              25,
		Gender:           models.GenderFemale,
		Height:           165,
		Weight:           70,
		TargetWeight:     60,
		ActivityLevel:    models.ActivityModerate,
		Goal:             models.GoalLoseWeight,
		DietType:         models.DietBalanced,
		WeightLossSpeed:  models.SpeedRecommended,
		MealsPerDay:      []models.MealSlot{models.SlotBreakfast, models.SlotLunch, models.SlotDinner},
		PreparationStyle: models.PrepRecipes,
		VarietyLevel:     models.VarietyMedium,
		AvailableFoods:   []string{"Chicken", "Rice", "Eggs", "Avocado", "Banana"},
		PlanningMode:     models.PlanningCustom,
	}
}
