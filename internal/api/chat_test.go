package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/fitplan/internal/models"
)

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		message  string
		intent   string
		mealType string
		keywords []string
	}{
		{"How much protein do I need?", intentQuestion, "", nil},
		{"Please change my breakfast", models.IntentChangeMeal, "Breakfast", nil},
		{"Cambia la cena por algo con tofu", models.IntentChangeMeal, "Dinner", []string{"Tofu"}},
		{"I don't like this, swap it", models.IntentChangeMeal, "Dinner", nil},
		{"replace my snack", models.IntentChangeMeal, "Snack", nil},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := detectIntent(tt.message)
			assert.Equal(t, tt.intent, got.Intent)
			assert.Equal(t, tt.mealType, got.MealType)
			assert.Equal(t, tt.keywords, got.Keywords)
		})
	}
}

func TestHandleChat(t *testing.T) {
	server := setupTestServer(t)
	userID, token := registerAndLogin(t, server, "a@b.com")

	send := func(t *testing.T, message string) models.ChatReply {
		t.Helper()
		req := jsonRequest(t, http.MethodPost, "/api/v1/chat/", token, models.ChatRequest{UserID: userID, Message: message})
		resp, err := server.app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var reply models.ChatReply
		decode(t, resp, &reply)
		return reply
	}

	t.Run("question", func(t *testing.T) {
		reply := send(t, "Is rice healthy?")
		assert.Equal(t, intentQuestion, reply.Intent)
		assert.NotEmpty(t, reply.Message)
	})

	t.Run("change without plan", func(t *testing.T) {
		reply := send(t, "change my lunch")
		assert.Equal(t, models.IntentChangeMeal, reply.Intent)
		assert.Contains(t, reply.Message, "No active plan")
	})

	t.Run("change swaps the first matching meal", func(t *testing.T) {
		resp, err := server.app.Test(jsonRequest(t, http.MethodPost, "/api/v1/plans/generate?user_id="+userID, token, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		before, _ := server.plans.get(userID)
		lunch := before.Plan[0].Meals[1]
		require.Equal(t, "Lunch", lunch.MealType)

		reply := send(t, "change my lunch to something with beans")
		assert.Equal(t, models.IntentChangeMeal, reply.Intent)
		assert.True(t, strings.Contains(reply.Message, "Done!"), reply.Message)

		after, _ := server.plans.get(userID)
		swapped := after.Plan[0].Meals[1]
		assert.NotEqual(t, lunch.RecipeID, swapped.RecipeID)
		assert.Equal(t, "bean-wrap", swapped.RecipeID)
		assert.Equal(t, lunch.Calories, swapped.Calories)
		assert.Equal(t, before.Plan[0].TotalCalories, after.Plan[0].TotalCalories)
	})

	t.Run("other user", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/v1/chat/", token, models.ChatRequest{UserID: "someone", Message: "hi"})
		resp, err := server.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})
}
