// Package mapping translates between the internal profile and plan
// representation and the remote service's wire vocabulary.
package mapping

import "github.com/illegalcall/fitplan/internal/models"

// table is a fixed bijection between internal enum values and their
// external strings.
type table[T ~string] struct {
	toWire   map[T]string
	fromWire map[string]T
}

func newTable[T ~string](pairs map[T]string) table[T] {
	t := table[T]{
		toWire:   pairs,
		fromWire: make(map[string]T, len(pairs)),
	}
	for internal, external := range pairs {
		if _, dup := t.fromWire[external]; dup {
			panic("mapping: duplicate external value " + external)
		}
		t.fromWire[external] = internal
	}
	return t
}

// External returns the wire string for v. Values outside the table are sent
// as-is so that passthrough values survive a round trip.
func (t table[T]) External(v T) string {
	if s, ok := t.toWire[v]; ok {
		return s
	}
	return string(v)
}

// Internal returns the enum value for s, or s unchanged when unknown.
func (t table[T]) Internal(s string) T {
	if v, ok := t.fromWire[s]; ok {
		return v
	}
	return T(s)
}

// Values returns every internal value of the table.
func (t table[T]) Values() []T {
	out := make([]T, 0, len(t.toWire))
	for v := range t.toWire {
		out = append(out, v)
	}
	return out
}

var (
	Genders = newTable(map[models.Gender]string{
		models.GenderMale:   "Male",
		models.GenderFemale: "Female",
		models.GenderOther:  "Other",
	})

	Goals = newTable(map[models.Goal]string{
		models.GoalLoseWeight: "Lose Weight",
		models.GoalMaintain:   "Maintain Weight",
		models.GoalGainMuscle: "Gain Muscle",
	})

	ActivityLevels = newTable(map[models.ActivityLevel]string{
		models.ActivitySedentary: "Sedentary",
		models.ActivityLight:     "Lightly Active",
		models.ActivityModerate:  "Moderately Active",
		models.ActivityVery:      "Very Active",
	})

	DietTypes = newTable(map[models.DietType]string{
		models.DietBalanced:    "Balanced",
		models.DietHighProtein: "High Protein",
		models.DietLowCarb:     "Low Carb",
		models.DietKeto:        "Keto",
		models.DietLowFat:      "Low Fat",
		models.DietVegan:       "Vegan",
	})

	PreparationStyles = newTable(map[models.PreparationStyle]string{
		models.PrepRecipes:     "Recipes",
		models.PrepIngredients: "Ingredients",
	})

	VarietyLevels = newTable(map[models.VarietyLevel]string{
		models.VarietyHigh:   "High",
		models.VarietyMedium: "Medium",
		models.VarietyLow:    "Low",
	})

	PlanningModes = newTable(map[models.PlanningMode]string{
		models.PlanningAutomatic: "Automatic",
		models.PlanningCustom:    "Custom",
	})

	WeightLossSpeeds = newTable(map[models.WeightLossSpeed]string{
		models.SpeedRecommended: "Recommended",
		models.SpeedFast:        "Fast",
		models.SpeedSlow:        "Slow",
	})

	MealSlots = newTable(map[models.MealSlot]string{
		models.SlotBreakfast: "Breakfast",
		models.SlotLunch:     "Lunch",
		models.SlotDinner:    "Dinner",
		models.SlotSnack1:    "Snack1",
		models.SlotSnack2:    "Snack2",
	})

	MealCategories = newTable(map[models.MealCategory]string{
		models.CategoryBreakfast: "Breakfast",
		models.CategoryLunch:     "Lunch",
		models.CategoryDinner:    "Dinner",
		models.CategorySnack:     "Snack",
	})
)
