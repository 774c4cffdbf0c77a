package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/fitplan/internal/models"
)

func assertRoundTrip[T ~string](t *testing.T, name string, tbl table[T]) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		values := tbl.Values()
		require.NotEmpty(t, values)
		for _, v := range values {
			assert.Equal(t, v, tbl.Internal(tbl.External(v)))
		}
	})
}

func TestVocabularyRoundTrip(t *testing.T) {
	assertRoundTrip(t, "gender", Genders)
	assertRoundTrip(t, "goal", Goals)
	assertRoundTrip(t, "activity", ActivityLevels)
	assertRoundTrip(t, "diet", DietTypes)
	assertRoundTrip(t, "preparation", PreparationStyles)
	assertRoundTrip(t, "variety", VarietyLevels)
	assertRoundTrip(t, "planning", PlanningModes)
	assertRoundTrip(t, "speed", WeightLossSpeeds)
	assertRoundTrip(t, "slot", MealSlots)
	assertRoundTrip(t, "category", MealCategories)
}

func TestProfileRoundTrip(t *testing.T) {
	p := models.Profile{
		Name:                 "Ana",
		Age:                  29,
		Height:               165,
		Weight:               70,
		TargetWeight:         60,
		Gender:               models.GenderFemale,
		Goal:                 models.GoalLoseWeight,
		ActivityLevel:        models.ActivityModerate,
		WeightLossSpeed:      models.SpeedRecommended,
		DietType:             models.DietKeto,
		MealsPerDay:          []models.MealSlot{models.SlotBreakfast, models.SlotSnack2},
		PreparationStyle:     models.PrepRecipes,
		VarietyLevel:         models.VarietyMedium,
		AvailableFoods:       []string{"Chicken", "Rice"},
		PlanningMode:         models.PlanningAutomatic,
		IsOnboardingComplete: true,
		Country:              "MX",
		Region:               "CDMX",
	}

	got := models.Merge(models.Profile{}, FromExternal(ToExternal(p.AsPatch())))
	assert.Equal(t, p, got)
}

func TestToExternal(t *testing.T) {
	t.Run("maps enums to wire strings", func(t *testing.T) {
		ext := ToExternal(models.ProfilePatch{
			Goal:          models.Ptr(models.GoalLoseWeight),
			ActivityLevel: models.Ptr(models.ActivityModerate),
			MealsPerDay:   []models.MealSlot{models.SlotLunch, models.SlotSnack1},
		})
		require.NotNil(t, ext.Goal)
		assert.Equal(t, "Lose Weight", *ext.Goal)
		assert.Equal(t, "Moderately Active", *ext.ActivityLevel)
		assert.Equal(t, []string{"Lunch", "Snack1"}, *ext.MealsPerDay)
	})

	t.Run("absent fields are omitted", func(t *testing.T) {
		body, err := json.Marshal(ToExternal(models.ProfilePatch{Weight: models.Ptr(71.5)}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"weight":71.5}`, string(body))
	})

	t.Run("false completion flag is sent", func(t *testing.T) {
		body, err := json.Marshal(ToExternal(models.ProfilePatch{IsOnboardingComplete: models.Ptr(false)}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"is_onboarding_complete":false}`, string(body))
	})
}

func TestFromExternal(t *testing.T) {
	t.Run("unknown vocabulary passes through", func(t *testing.T) {
		var ext ExternalProfile
		require.NoError(t, json.Unmarshal([]byte(`{"goal":"Some New Goal","meals_per_day":["Brunch"]}`), &ext))

		patch := FromExternal(ext)
		require.NotNil(t, patch.Goal)
		assert.Equal(t, models.Goal("Some New Goal"), *patch.Goal)
		assert.Equal(t, []models.MealSlot{"Brunch"}, patch.MealsPerDay)
		assert.Nil(t, patch.Gender)
	})

	t.Run("fields from the service", func(t *testing.T) {
		var ext ExternalProfile
		raw := `{"name":"Ana","gender":"Female","activity_level":"Very Active","foods_like":["Tofu"],"is_onboarding_complete":true}`
		require.NoError(t, json.Unmarshal([]byte(raw), &ext))

		p := models.Merge(models.Profile{}, FromExternal(ext))
		assert.Equal(t, "Ana", p.Name)
		assert.Equal(t, models.GenderFemale, p.Gender)
		assert.Equal(t, models.ActivityVery, p.ActivityLevel)
		assert.Equal(t, []string{"Tofu"}, p.AvailableFoods)
		assert.True(t, p.IsOnboardingComplete)
	})
}

func TestMapPlan(t *testing.T) {
	raw := `[{
		"day": "Monday",
		"total_calories": 2000,
		"target_calories": 1900,
		"meals": [
			{"recipe_id": "r1", "id": "x1", "name": "Meal 1", "calories": 500, "meal_type": "Breakfast"},
			{"id": "x2", "name": "Meal 2", "calories": 600, "meal_type": "Dinner", "protein": 40, "carbs": 50, "fats": 20,
			 "image": "img.png", "prepTime": "30 min", "ingredients": ["Salmon"]},
			{"id": "x3", "name": "Meal 3", "calories": 200, "meal_type": "Elevenses"}
		]
	}]`
	var days []ExternalDay
	require.NoError(t, json.Unmarshal([]byte(raw), &days))

	plan := MapPlan(days)
	require.Len(t, plan, 1)
	day := plan[0]
	assert.Equal(t, "Monday", day.Day)
	assert.Equal(t, 2000, day.TotalCalories, "wire total is trusted")
	assert.Equal(t, 1900, day.TargetCalories)
	require.Len(t, day.Meals, 3)

	first := day.Meals[0]
	assert.Equal(t, "r1", first.ID)
	assert.Equal(t, models.CategoryBreakfast, first.Category)
	assert.Equal(t, models.Macros{Protein: 31, Carbs: 56, Fats: 16}, first.Macros)
	assert.Equal(t, MealImage(models.CategoryBreakfast), first.Image)
	assert.Equal(t, DefaultPrepTime, first.PrepTime)
	assert.NotNil(t, first.Ingredients)

	second := day.Meals[1]
	assert.Equal(t, "x2", second.ID)
	assert.Equal(t, models.Macros{Protein: 40, Carbs: 50, Fats: 20}, second.Macros)
	assert.Equal(t, "img.png", second.Image)
	assert.Equal(t, "30 min", second.PrepTime)
	assert.Equal(t, []string{"Salmon"}, second.Ingredients)

	third := day.Meals[2]
	assert.Equal(t, models.MealCategory("Elevenses"), third.Category)
	assert.Equal(t, MealImage(models.CategoryBreakfast), third.Image)
}

func TestMapPlanFractionalTotals(t *testing.T) {
	raw := `[{"day": "Monday", "total_calories": 1850.5, "target_calories": 1899.4,
		"meals": [{"id": "x1", "name": "Meal 1", "calories": 620.7, "meal_type": "Lunch"}]}]`
	var days []ExternalDay
	require.NoError(t, json.Unmarshal([]byte(raw), &days))

	plan := MapPlan(days)
	require.Len(t, plan, 1)
	assert.Equal(t, 1851, plan[0].TotalCalories)
	assert.Equal(t, 1899, plan[0].TargetCalories)
	assert.Equal(t, 621, plan[0].Meals[0].Calories)
}

func TestBackfillMacros(t *testing.T) {
	assert.Equal(t, models.Macros{Protein: 31, Carbs: 56, Fats: 16}, BackfillMacros(500))
	assert.Equal(t, models.Macros{}, BackfillMacros(0))
}

func TestPlanToExternal(t *testing.T) {
	plan := []models.DayPlan{{
		Day:            "Tue",
		TotalCalories:  450,
		TargetCalories: 1800,
		Meals: []models.Meal{{
			ID: "m1", Name: "Yogurt", Calories: 450, Category: models.CategorySnack,
			PrepTime: "5", Image: "y.png", Macros: models.Macros{Protein: 15, Carbs: 20, Fats: 5},
			Ingredients: []string{"Greek yogurt"},
		}},
	}}

	ext := PlanToExternal(plan)
	require.Len(t, ext, 1)
	assert.Equal(t, "Snack", ext[0].Meals[0].MealType)
	assert.Equal(t, "m1", ext[0].Meals[0].RecipeID)
	assert.Equal(t, plan, MapPlan(ext))
}
