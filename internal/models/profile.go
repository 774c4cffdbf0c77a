package models

import "slices"

// Profile is the durable record describing one user's identity, goals and
// meal preferences. Values are internal enum identifiers; the mapping layer
// converts them to the remote vocabulary.
type Profile struct {
	Name                 string           `json:"name"`
	Age                  int              `json:"age"`
	Height               float64          `json:"height"`       // cm
	Weight               float64          `json:"weight"`       // kg
	TargetWeight         float64          `json:"targetWeight"` // kg
	Gender               Gender           `json:"gender"`
	Goal                 Goal             `json:"goal"`
	ActivityLevel        ActivityLevel    `json:"activityLevel"`
	WeightLossSpeed      WeightLossSpeed  `json:"weightLossSpeed"`
	DietType             DietType         `json:"dietType"`
	MealsPerDay          []MealSlot       `json:"mealsPerDay"`
	PreparationStyle     PreparationStyle `json:"preparationStyle"`
	VarietyLevel         VarietyLevel     `json:"varietyLevel"`
	AvailableFoods       []string         `json:"availableFoods"`
	PlanningMode         PlanningMode     `json:"planningMode"`
	IsOnboardingComplete bool             `json:"isOnboardingComplete,omitempty"`
	Country              string           `json:"country,omitempty"`
	Region               string           `json:"region,omitempty"`
}

// ProfilePatch is a partial profile update. A nil field is absent and leaves
// the base value untouched when merged.
type ProfilePatch struct {
	Name                 *string
	Age                  *int
	Height               *float64
	Weight               *float64
	TargetWeight         *float64
	Gender               *Gender
	Goal                 *Goal
	ActivityLevel        *ActivityLevel
	WeightLossSpeed      *WeightLossSpeed
	DietType             *DietType
	MealsPerDay          []MealSlot // nil means absent
	PreparationStyle     *PreparationStyle
	VarietyLevel         *VarietyLevel
	AvailableFoods       []string // nil means absent
	PlanningMode         *PlanningMode
	IsOnboardingComplete *bool
	Country              *string
	Region               *string
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T {
	return &v
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	p.MealsPerDay = slices.Clone(p.MealsPerDay)
	p.AvailableFoods = slices.Clone(p.AvailableFoods)
	return p
}

// HasMealSlot reports whether slot is part of the user's day.
func (p Profile) HasMealSlot(slot MealSlot) bool {
	return slices.Contains(p.MealsPerDay, slot)
}

// AsPatch returns a patch with every field of p present.
func (p Profile) AsPatch() ProfilePatch {
	c := p.Clone()
	if c.MealsPerDay == nil {
		c.MealsPerDay = []MealSlot{}
	}
	if c.AvailableFoods == nil {
		c.AvailableFoods = []string{}
	}
	return ProfilePatch{
		Name:                 &c.Name,
		Age:                  &c.Age,
		Height:               &c.Height,
		Weight:               &c.Weight,
		TargetWeight:         &c.TargetWeight,
		Gender:               &c.Gender,
		Goal:                 &c.Goal,
		ActivityLevel:        &c.ActivityLevel,
		WeightLossSpeed:      &c.WeightLossSpeed,
		DietType:             &c.DietType,
		MealsPerDay:          c.MealsPerDay,
		PreparationStyle:     &c.PreparationStyle,
		VarietyLevel:         &c.VarietyLevel,
		AvailableFoods:       c.AvailableFoods,
		PlanningMode:         &c.PlanningMode,
		IsOnboardingComplete: &c.IsOnboardingComplete,
		Country:              &c.Country,
		Region:               &c.Region,
	}
}

// IsEmpty reports whether the patch carries no field at all.
func (u ProfilePatch) IsEmpty() bool {
	return u.Name == nil && u.Age == nil && u.Height == nil && u.Weight == nil &&
		u.TargetWeight == nil && u.Gender == nil && u.Goal == nil &&
		u.ActivityLevel == nil && u.WeightLossSpeed == nil && u.DietType == nil &&
		u.MealsPerDay == nil && u.PreparationStyle == nil && u.VarietyLevel == nil &&
		u.AvailableFoods == nil && u.PlanningMode == nil &&
		u.IsOnboardingComplete == nil && u.Country == nil && u.Region == nil
}

// Merge applies patch on top of base field by field and returns the result.
// base is not modified.
func Merge(base Profile, patch ProfilePatch) Profile {
	out := base.Clone()
	setIf(&out.Name, patch.Name)
	setIf(&out.Age, patch.Age)
	setIf(&out.Height, patch.Height)
	setIf(&out.Weight, patch.Weight)
	setIf(&out.TargetWeight, patch.TargetWeight)
	setIf(&out.Gender, patch.Gender)
	setIf(&out.Goal, patch.Goal)
	setIf(&out.ActivityLevel, patch.ActivityLevel)
	setIf(&out.WeightLossSpeed, patch.WeightLossSpeed)
	setIf(&out.DietType, patch.DietType)
	if patch.MealsPerDay != nil {
		out.MealsPerDay = slices.Clone(patch.MealsPerDay)
	}
	setIf(&out.PreparationStyle, patch.PreparationStyle)
	setIf(&out.VarietyLevel, patch.VarietyLevel)
	if patch.AvailableFoods != nil {
		out.AvailableFoods = slices.Clone(patch.AvailableFoods)
	}
	setIf(&out.PlanningMode, patch.PlanningMode)
	setIf(&out.IsOnboardingComplete, patch.IsOnboardingComplete)
	setIf(&out.Country, patch.Country)
	setIf(&out.Region, patch.Region)
	return out
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
