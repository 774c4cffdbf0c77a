package mapping

import "github.com/illegalcall/fitplan/internal/models"

// ExternalProfile is the user record as the remote service reads and writes
// it. Nil fields are omitted from the payload.
type ExternalProfile struct {
	Name                 *string   `json:"name,omitempty"`
	Age                  *int      `json:"age,omitempty"`
	Weight               *float64  `json:"weight,omitempty"`
	Height               *float64  `json:"height,omitempty"`
	TargetWeight         *float64  `json:"target_weight,omitempty"`
	Gender               *string   `json:"gender,omitempty"`
	Goal                 *string   `json:"goal,omitempty"`
	ActivityLevel        *string   `json:"activity_level,omitempty"`
	WeightLossSpeed      *string   `json:"weight_loss_speed,omitempty"`
	DietType             *string   `json:"diet_type,omitempty"`
	FoodsLike            *[]string `json:"foods_like,omitempty"`
	MealsPerDay          *[]string `json:"meals_per_day,omitempty"`
	PreparationStyle     *string   `json:"preparation_style,omitempty"`
	VarietyLevel         *string   `json:"variety_level,omitempty"`
	PlanningMode         *string   `json:"planning_mode,omitempty"`
	IsOnboardingComplete *bool     `json:"is_onboarding_complete,omitempty"`
	Country              *string   `json:"country,omitempty"`
	Region               *string   `json:"region,omitempty"`
}

// ToExternal converts a patch to the wire shape. Every present enum field is
// replaced by its external string; absent fields stay absent.
func ToExternal(p models.ProfilePatch) ExternalProfile {
	out := ExternalProfile{
		Name:                 clonePtr(p.Name),
		Age:                  clonePtr(p.Age),
		Weight:               clonePtr(p.Weight),
		Height:               clonePtr(p.Height),
		TargetWeight:         clonePtr(p.TargetWeight),
		Gender:               toWire(Genders, p.Gender),
		Goal:                 toWire(Goals, p.Goal),
		ActivityLevel:        toWire(ActivityLevels, p.ActivityLevel),
		WeightLossSpeed:      toWire(WeightLossSpeeds, p.WeightLossSpeed),
		DietType:             toWire(DietTypes, p.DietType),
		PreparationStyle:     toWire(PreparationStyles, p.PreparationStyle),
		VarietyLevel:         toWire(VarietyLevels, p.VarietyLevel),
		PlanningMode:         toWire(PlanningModes, p.PlanningMode),
		IsOnboardingComplete: clonePtr(p.IsOnboardingComplete),
		Country:              clonePtr(p.Country),
		Region:               clonePtr(p.Region),
	}
	if p.AvailableFoods != nil {
		foods := append([]string{}, p.AvailableFoods...)
		out.FoodsLike = &foods
	}
	if p.MealsPerDay != nil {
		slots := make([]string, 0, len(p.MealsPerDay))
		for _, s := range p.MealsPerDay {
			slots = append(slots, MealSlots.External(s))
		}
		out.MealsPerDay = &slots
	}
	return out
}

// FromExternal converts a wire record to a patch. Unknown vocabulary is kept
// as the raw string instead of failing.
func FromExternal(e ExternalProfile) models.ProfilePatch {
	out := models.ProfilePatch{
		Name:                 clonePtr(e.Name),
		Age:                  clonePtr(e.Age),
		Weight:               clonePtr(e.Weight),
		Height:               clonePtr(e.Height),
		TargetWeight:         clonePtr(e.TargetWeight),
		Gender:               fromWire(Genders, e.Gender),
		Goal:                 fromWire(Goals, e.Goal),
		ActivityLevel:        fromWire(ActivityLevels, e.ActivityLevel),
		WeightLossSpeed:      fromWire(WeightLossSpeeds, e.WeightLossSpeed),
		DietType:             fromWire(DietTypes, e.DietType),
		PreparationStyle:     fromWire(PreparationStyles, e.PreparationStyle),
		VarietyLevel:         fromWire(VarietyLevels, e.VarietyLevel),
		PlanningMode:         fromWire(PlanningModes, e.PlanningMode),
		IsOnboardingComplete: clonePtr(e.IsOnboardingComplete),
		Country:              clonePtr(e.Country),
		Region:               clonePtr(e.Region),
	}
	if e.FoodsLike != nil {
		out.AvailableFoods = append([]string{}, (*e.FoodsLike)...)
	}
	if e.MealsPerDay != nil {
		out.MealsPerDay = make([]models.MealSlot, 0, len(*e.MealsPerDay))
		for _, s := range *e.MealsPerDay {
			out.MealsPerDay = append(out.MealsPerDay, MealSlots.Internal(s))
		}
	}
	return out
}

func toWire[T ~string](t table[T], v *T) *string {
	if v == nil {
		return nil
	}
	s := t.External(*v)
	return &s
}

func fromWire[T ~string](t table[T], s *string) *T {
	if s == nil {
		return nil
	}
	v := t.Internal(*s)
	return &v
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
