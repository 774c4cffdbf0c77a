package api

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/fitplan/internal/models"
)

const intentQuestion = "QUESTION"

var changeWords = []string{"change", "swap", "replace", "cambia", "cambiar", "don't like", "no me gusta"}

var mealWords = [][2]string{
	{"breakfast", "Breakfast"},
	{"desayuno", "Breakfast"},
	{"lunch", "Lunch"},
	{"almuerzo", "Lunch"},
	{"dinner", "Dinner"},
	{"cena", "Dinner"},
	{"snack", "Snack"},
	{"merienda", "Snack"},
}

type chatIntent struct {
	Intent   string
	MealType string
	Keywords []string
}

// detectIntent is a keyword stand-in for the assistant model. A change
// request without a meal type targets dinner.
func detectIntent(message string) chatIntent {
	text := strings.ToLower(message)

	change := false
	for _, w := range changeWords {
		if strings.Contains(text, w) {
			change = true
			break
		}
	}
	if !change {
		return chatIntent{Intent: intentQuestion}
	}

	in := chatIntent{Intent: models.IntentChangeMeal, MealType: "Dinner"}
	for _, w := range mealWords {
		if strings.Contains(text, w[0]) {
			in.MealType = w[1]
			break
		}
	}
	for _, options := range recipes {
		for _, r := range options {
			for _, ing := range r.Ingredients {
				if strings.Contains(text, strings.ToLower(ing)) && !slices.Contains(in.Keywords, ing) {
					in.Keywords = append(in.Keywords, ing)
				}
			}
		}
	}
	return in
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if !s.owns(c, req.UserID) {
		return detail(c, fiber.StatusForbidden, "Not allowed to chat for this user")
	}

	in := detectIntent(req.Message)
	if in.Intent != models.IntentChangeMeal {
		return c.JSON(models.ChatReply{
			Intent:  intentQuestion,
			Message: "Keep meals balanced: lean protein, whole grains and vegetables at every main meal.",
		})
	}

	reply := models.ChatReply{
		Intent:  models.IntentChangeMeal,
		Message: fmt.Sprintf("Sure, let's change your %s.", strings.ToLower(in.MealType)),
	}
	if name, ok := s.plans.swap(req.UserID, in.MealType, in.Keywords); ok {
		reply.Message += fmt.Sprintf("\n\nDone! Updated your %s to: %s", in.MealType, name)
	} else {
		reply.Message += "\n\n(I tried to change it but: No active plan found to update.)"
	}

	s.logger.Info("Chat handled", "userID", req.UserID, "intent", reply.Intent)
	return c.JSON(reply)
}
