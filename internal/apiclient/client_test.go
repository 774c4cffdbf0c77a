package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/fitplan/internal/mapping"
	"github.com/illegalcall/fitplan/internal/models"
)

func setupTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", 5*time.Second, opts...)
}

func TestLogin(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "a@b.com" || r.PostForm.Get("password") != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Incorrect email or password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer"}`)
	})

	t.Run("valid credentials", func(t *testing.T) {
		token, err := client.Login(context.Background(), "a@b.com", "pw")
		require.NoError(t, err)
		assert.Equal(t, "tok", token)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		_, err := client.Login(context.Background(), "a@b.com", "nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnauthorized)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, OpLogin, statusErr.Op)
		assert.Equal(t, "Incorrect email or password", statusErr.Message)
	})
}

func TestBearerToken(t *testing.T) {
	var seen atomic.Value
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"name":"Ana"}`)
	})

	client.SetToken("abc")
	_, err := client.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", seen.Load())

	client.SetToken("")
	_, err = client.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "", seen.Load())
}

func TestUnauthorizedHooks(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	var calls atomic.Int32
	client.OnUnauthorized(func(context.Context) { calls.Add(1) })
	client.OnUnauthorized(func(context.Context) { calls.Add(1) })

	_, err := client.GetUser(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUserEndpoints(t *testing.T) {
	var updated map[string]any
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/users/":
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":"123","message":"created"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/users/123":
			_, _ = io.WriteString(w, `{"name":"Ana","goal":"Lose Weight","meals_per_day":["Breakfast","Snack1"]}`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/users/123":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	id, err := client.CreateUser(ctx, mapping.ToExternal(models.ProfilePatch{Name: models.Ptr("Ana")}))
	require.NoError(t, err)
	assert.Equal(t, "123", id)

	ext, err := client.GetUser(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, ext.Goal)
	assert.Equal(t, "Lose Weight", *ext.Goal)
	assert.Equal(t, []string{"Breakfast", "Snack1"}, *ext.MealsPerDay)

	err = client.UpdateUser(ctx, id, mapping.ToExternal(models.ProfilePatch{Weight: models.Ptr(68.0)}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"weight": 68.0}, updated)

	_, err = client.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlans(t *testing.T) {
	const planBody = `{"summary":{"plan":[{"day":"Monday","total_calories":2000,"target_calories":2000,
		"meals":[{"recipe_id":"r1","name":"Meal 1","calories":500,"meal_type":"Breakfast"}]}]}}`

	tests := []struct {
		name     string
		status   int
		body     string
		wantDays int
		wantErr  bool
	}{
		{name: "plan", status: http.StatusOK, body: planBody, wantDays: 1},
		{name: "fractional totals", status: http.StatusOK, wantDays: 1,
			body: `{"summary":{"plan":[{"day":"Monday","total_calories":1850.5,"target_calories":1900.25,"meals":[]}]}}`},
		{name: "no plan yet", status: http.StatusNotFound, body: `{"detail":"No plan found"}`, wantDays: 0},
		{name: "empty summary", status: http.StatusOK, body: `{"summary":{}}`, wantDays: 0},
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"boom"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/plans/latest", r.URL.Path)
				assert.Equal(t, "u1", r.URL.Query().Get("user_id"))
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			plan, err := client.LatestPlan(context.Background(), "u1")
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, errors.Is(err, ErrNotFound))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, plan)
			assert.Len(t, plan, tt.wantDays)
		})
	}

	t.Run("generate maps response", func(t *testing.T) {
		client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/plans/generate", r.URL.Path)
			_, _ = io.WriteString(w, planBody)
		})

		plan, err := client.GeneratePlan(context.Background(), "u1")
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.Equal(t, 2000, plan[0].TotalCalories)
		assert.Equal(t, "Meal 1", plan[0].Meals[0].Name)
		assert.NotEmpty(t, plan[0].Meals[0].Image)
	})

	t.Run("generate does not swallow not found", func(t *testing.T) {
		client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := client.GeneratePlan(context.Background(), "u1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSendChat(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req.UserID)
		assert.Equal(t, "swap my lunch", req.Message)
		_, _ = io.WriteString(w, `{"intent":"CHANGE_MEAL","message":"Done"}`)
	})

	reply, err := client.SendChat(context.Background(), "u1", "swap my lunch")
	require.NoError(t, err)
	assert.Equal(t, models.ChatReply{Intent: models.IntentChangeMeal, Message: "Done"}, reply)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, WithMetrics(metrics))

	_, _ = client.LatestPlan(context.Background(), "u1")
	_, _ = client.LatestPlan(context.Background(), "u1")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues(OpLatestPlan, "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.duration))
}

func TestTransportError(t *testing.T) {
	client := New("http://127.0.0.1:1/api/v1", time.Second)
	_, err := client.GetUser(context.Background(), "u1")
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}
