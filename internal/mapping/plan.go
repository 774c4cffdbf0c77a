package mapping

import (
	"math"
	"strconv"

	"github.com/illegalcall/fitplan/internal/models"
)

// DefaultPrepTime is used when the service omits a meal's preparation time.
const DefaultPrepTime = "15"

var mealImages = map[models.MealCategory]string{
	models.CategoryBreakfast: "https://images.unsplash.com/photo-1525351484163-7529414395d8?auto=format&fit=crop&q=80&w=800",
	models.CategoryLunch:     "https://images.unsplash.com/photo-1546069901-ba9599a7e63c?auto=format&fit=crop&q=80&w=800",
	models.CategoryDinner:    "https://images.unsplash.com/photo-1467003909585-2f8a7270028d?auto=format&fit=crop&q=80&w=800",
	models.CategorySnack:     "https://images.unsplash.com/photo-1488477181946-6428a029177b?auto=format&fit=crop&q=80&w=800",
}

// ExternalDay is one day of a plan in the wire shape.
type ExternalDay struct {
	Day            string         `json:"day"`
	TotalCalories  float64        `json:"total_calories"`
	TargetCalories float64        `json:"target_calories"`
	Meals          []ExternalMeal `json:"meals"`
}

// ExternalMeal is one meal in the wire shape. Zero macros mean "not sent".
type ExternalMeal struct {
	RecipeID    string   `json:"recipe_id,omitempty"`
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Calories    float64  `json:"calories"`
	MealType    string   `json:"meal_type"`
	Protein     float64  `json:"protein,omitempty"`
	Carbs       float64  `json:"carbs,omitempty"`
	Fats        float64  `json:"fats,omitempty"`
	Image       string   `json:"image,omitempty"`
	PrepTime    string   `json:"prepTime,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
}

// MealImage returns the illustrative image for a category, falling back to
// the breakfast image.
func MealImage(c models.MealCategory) string {
	if img, ok := mealImages[c]; ok {
		return img
	}
	return mealImages[models.CategoryBreakfast]
}

// BackfillMacros estimates macros from calories with a fixed 25/45/30 split.
func BackfillMacros(calories float64) models.Macros {
	return models.Macros{
		Protein: int(math.Floor(calories * 0.25 / 4)),
		Carbs:   int(math.Floor(calories * 0.45 / 4)),
		Fats:    int(math.Floor(calories * 0.30 / 9)),
	}
}

// MapPlan reshapes a wire plan into day plans. Totals are taken as given,
// rounded to whole calories.
func MapPlan(days []ExternalDay) []models.DayPlan {
	out := make([]models.DayPlan, 0, len(days))
	for _, d := range days {
		day := models.DayPlan{
			Day:            d.Day,
			TotalCalories:  int(math.Round(d.TotalCalories)),
			TargetCalories: int(math.Round(d.TargetCalories)),
			Meals:          make([]models.Meal, 0, len(d.Meals)),
		}
		for _, m := range d.Meals {
			day.Meals = append(day.Meals, mapMeal(m))
		}
		out = append(out, day)
	}
	return out
}

func mapMeal(m ExternalMeal) models.Meal {
	category := MealCategories.Internal(m.MealType)
	estimate := BackfillMacros(m.Calories)

	meal := models.Meal{
		ID:          m.RecipeID,
		Name:        m.Name,
		Calories:    int(math.Round(m.Calories)),
		Category:    category,
		PrepTime:    m.PrepTime,
		Image:       m.Image,
		Ingredients: append([]string{}, m.Ingredients...),
		Macros: models.Macros{
			Protein: orDefault(m.Protein, estimate.Protein),
			Carbs:   orDefault(m.Carbs, estimate.Carbs),
			Fats:    orDefault(m.Fats, estimate.Fats),
		},
	}
	if meal.ID == "" {
		meal.ID = m.ID
	}
	if meal.Image == "" {
		meal.Image = MealImage(category)
	}
	if meal.PrepTime == "" {
		meal.PrepTime = DefaultPrepTime
	}
	return meal
}

// PlanToExternal reshapes day plans into the wire shape.
func PlanToExternal(days []models.DayPlan) []ExternalDay {
	out := make([]ExternalDay, 0, len(days))
	for _, d := range days {
		ext := ExternalDay{
			Day:            d.Day,
			TotalCalories:  float64(d.TotalCalories),
			TargetCalories: float64(d.TargetCalories),
			Meals:          make([]ExternalMeal, 0, len(d.Meals)),
		}
		for _, m := range d.Meals {
			ext.Meals = append(ext.Meals, ExternalMeal{
				RecipeID:    m.ID,
				Name:        m.Name,
				Calories:    float64(m.Calories),
				MealType:    MealCategories.External(m.Category),
				Protein:     float64(m.Protein),
				Carbs:       float64(m.Carbs),
				Fats:        float64(m.Fats),
				Image:       m.Image,
				PrepTime:    m.PrepTime,
				Ingredients: append([]string(nil), m.Ingredients...),
			})
		}
		out = append(out, ext)
	}
	return out
}

// FormatMinutes renders minutes the way the service sends prep times.
func FormatMinutes(minutes int) string {
	return strconv.Itoa(minutes) + " min"
}

func orDefault(v float64, fallback int) int {
	if v == 0 {
		return fallback
	}
	return int(math.Round(v))
}
