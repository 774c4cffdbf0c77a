package models

// Macros is a protein/carbs/fats breakdown in grams.
type Macros struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fats    int `json:"fats"`
}

// Meal is a single scheduled meal. Meals are copied by value into the day
// that owns them.
type Meal struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Calories int          `json:"calories"`
	Category MealCategory `json:"type"`
	PrepTime string       `json:"prepTime,omitempty"` // minutes
	Image    string       `json:"image"`
	Macros
	Ingredients []string `json:"ingredients,omitempty"`
}

// DayPlan is one day's worth of meals plus its calorie totals.
type DayPlan struct {
	Day            string `json:"day"`
	Meals          []Meal `json:"meals"`
	TotalCalories  int    `json:"totalCalories"`
	TargetCalories int    `json:"targetCalories"`
}

// DailyTotals is the nutrition sum over one day's meals.
type DailyTotals struct {
	Calories int `json:"calories"`
	Macros
}

// SumCalories returns the sum of the meals' calories.
func (d DayPlan) SumCalories() int {
	total := 0
	for _, m := range d.Meals {
		total += m.Calories
	}
	return total
}

// RecomputeTotal sets TotalCalories from the meals. Every local mutation of
// a day must call it.
func (d *DayPlan) RecomputeTotal() {
	d.TotalCalories = d.SumCalories()
}

// Totals sums calories and macros over the day's meals.
func (d DayPlan) Totals() DailyTotals {
	var t DailyTotals
	for _, m := range d.Meals {
		t.Calories += m.Calories
		t.Protein += m.Protein
		t.Carbs += m.Carbs
		t.Fats += m.Fats
	}
	return t
}

// Clone returns a deep copy of the day.
func (d DayPlan) Clone() DayPlan {
	meals := make([]Meal, len(d.Meals))
	for i, m := range d.Meals {
		if m.Ingredients != nil {
			m.Ingredients = append([]string(nil), m.Ingredients...)
		}
		meals[i] = m
	}
	d.Meals = meals
	return d
}

// ClonePlan deep-copies a weekly plan.
func ClonePlan(days []DayPlan) []DayPlan {
	if days == nil {
		return nil
	}
	out := make([]DayPlan, len(days))
	for i, d := range days {
		out[i] = d.Clone()
	}
	return out
}
