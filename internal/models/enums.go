package models

// Gender of the user, used by the remote service for energy estimates.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Goal is the user's weight goal.
type Goal string

const (
	GoalLoseWeight Goal = "lose_weight"
	GoalMaintain   Goal = "maintain"
	GoalGainMuscle Goal = "gain_muscle"
)

// ActivityLevel describes how active the user is on a typical day.
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "lightly_active"
	ActivityModerate  ActivityLevel = "moderately_active"
	ActivityVery      ActivityLevel = "very_active"
)

// DietType is the macro distribution the plan should follow.
type DietType string

const (
	DietBalanced    DietType = "balanced"
	DietHighProtein DietType = "high_protein"
	DietLowCarb     DietType = "low_carb"
	DietKeto        DietType = "keto"
	DietLowFat      DietType = "low_fat"
	DietVegan       DietType = "vegan"
)

// PreparationStyle selects recipe-driven or ingredient-driven meals.
type PreparationStyle string

const (
	PrepRecipes     PreparationStyle = "recipes"
	PrepIngredients PreparationStyle = "ingredients"
)

// VarietyLevel controls how often meals repeat across the week.
type VarietyLevel string

const (
	VarietyHigh   VarietyLevel = "high"
	VarietyMedium VarietyLevel = "medium"
	VarietyLow    VarietyLevel = "low"
)

// PlanningMode is automatic (system defaults, short onboarding) or custom.
type PlanningMode string

const (
	PlanningAutomatic PlanningMode = "automatic"
	PlanningCustom    PlanningMode = "custom"
)

// WeightLossSpeed is the pace chosen for reaching the target weight.
type WeightLossSpeed string

const (
	SpeedRecommended WeightLossSpeed = "recommended"
	SpeedFast        WeightLossSpeed = "fast"
	SpeedSlow        WeightLossSpeed = "slow"
)

// MealSlot is a named position in a day the user wants to eat at.
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotDinner    MealSlot = "dinner"
	SlotSnack1    MealSlot = "snack_1"
	SlotSnack2    MealSlot = "snack_2"
)

// MealSlots lists every slot in display order.
var MealSlots = []MealSlot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack1, SlotSnack2}

// MealCategory is the category of a meal inside a generated plan.
type MealCategory string

const (
	CategoryBreakfast MealCategory = "breakfast"
	CategoryLunch     MealCategory = "lunch"
	CategoryDinner    MealCategory = "dinner"
	CategorySnack     MealCategory = "snack"
)
