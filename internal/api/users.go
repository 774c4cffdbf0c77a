package api

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/illegalcall/fitplan/internal/mapping"
)

var (
	errEmailTaken   = errors.New("email already registered")
	errUserNotFound = errors.New("user not found")
)

type userRecord struct {
	ID           string
	Email        string
	PasswordHash []byte
	Profile      mapping.ExternalProfile
}

// userStore keeps accounts in memory.
type userStore struct {
	mu      sync.RWMutex
	byID    map[string]*userRecord
	byEmail map[string]string
}

func newUserStore() *userStore {
	return &userStore{
		byID:    make(map[string]*userRecord),
		byEmail: make(map[string]string),
	}
}

// createAccount registers credentials with an initial profile. An empty email
// creates a profile-only record.
func (s *userStore) createAccount(email, password string, profile mapping.ExternalProfile) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var hash []byte
	if password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if email != "" {
		if _, ok := s.byEmail[email]; ok {
			return "", errEmailTaken
		}
	}

	rec := &userRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Profile:      profile,
	}
	s.byID[rec.ID] = rec
	if email != "" {
		s.byEmail[email] = rec.ID
	}
	return rec.ID, nil
}

// authenticate returns the id of the account matching the credentials.
func (s *userStore) authenticate(email, password string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	id, ok := s.byEmail[email]
	var hash []byte
	if ok {
		hash = s.byID[id].PasswordHash
	}
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return "", false
	}
	return id, true
}

func (s *userStore) profile(id string) (mapping.ExternalProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return mapping.ExternalProfile{}, errUserNotFound
	}
	return rec.Profile, nil
}

// update overwrites the fields present in patch.
func (s *userStore) update(id string, patch mapping.ExternalProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return errUserNotFound
	}
	rec.Profile = mergeExternal(rec.Profile, patch)
	return nil
}

func mergeExternal(base, patch mapping.ExternalProfile) mapping.ExternalProfile {
	set(&base.Name, patch.Name)
	set(&base.Age, patch.Age)
	set(&base.Weight, patch.Weight)
	set(&base.Height, patch.Height)
	set(&base.TargetWeight, patch.TargetWeight)
	set(&base.Gender, patch.Gender)
	set(&base.Goal, patch.Goal)
	set(&base.ActivityLevel, patch.ActivityLevel)
	set(&base.WeightLossSpeed, patch.WeightLossSpeed)
	set(&base.DietType, patch.DietType)
	set(&base.FoodsLike, patch.FoodsLike)
	set(&base.MealsPerDay, patch.MealsPerDay)
	set(&base.PreparationStyle, patch.PreparationStyle)
	set(&base.VarietyLevel, patch.VarietyLevel)
	set(&base.PlanningMode, patch.PlanningMode)
	set(&base.IsOnboardingComplete, patch.IsOnboardingComplete)
	set(&base.Country, patch.Country)
	set(&base.Region, patch.Region)
	return base
}

func set[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
