// Package session holds the authenticated user's token, id and cached
// profile, and keeps them in durable storage across restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/illegalcall/fitplan/internal/apiclient"
	"github.com/illegalcall/fitplan/internal/events"
	"github.com/illegalcall/fitplan/internal/mapping"
	"github.com/illegalcall/fitplan/internal/models"
	"github.com/illegalcall/fitplan/internal/storage"
	"github.com/illegalcall/fitplan/internal/worker"
)

// StorageKey is the single record the snapshot is persisted under.
const StorageKey = "fitplan_user_store"

// Defaults sent with a bare account registration; onboarding overwrites them.
const (
	defaultAge    = 25
	defaultWeight = 70
	defaultHeight = 170
)

// Remote is the part of the nutrition service the session needs.
type Remote interface {
	SetToken(token string)
	Login(ctx context.Context, email, password string) (string, error)
	RegisterAccount(ctx context.Context, req models.RegisterAccountRequest) error
	GetUser(ctx context.Context, userID string) (mapping.ExternalProfile, error)
	UpdateUser(ctx context.Context, userID string, profile mapping.ExternalProfile) error
}

// Spawner runs background work. *worker.Runner implements it.
type Spawner interface {
	Spawn(ctx context.Context, name, userID string, task worker.Task) *worker.Handle
}

type State int

const (
	Anonymous State = iota
	AuthenticatedNoProfile
	AuthenticatedWithProfile
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case AuthenticatedNoProfile:
		return "authenticated_no_profile"
	case AuthenticatedWithProfile:
		return "authenticated_with_profile"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is the persisted session shape. Token and UserID are either both
// set or both empty.
type Snapshot struct {
	Token   string          `json:"token,omitempty"`
	UserID  string          `json:"userId,omitempty"`
	Profile *models.Profile `json:"userProfile,omitempty"`
}

func (s Snapshot) clone() Snapshot {
	if s.Profile != nil {
		p := s.Profile.Clone()
		s.Profile = &p
	}
	return s
}

func (s Snapshot) State() State {
	switch {
	case s.Token == "":
		return Anonymous
	case s.Profile == nil:
		return AuthenticatedNoProfile
	default:
		return AuthenticatedWithProfile
	}
}

// Store is the session state container. It is safe for concurrent use.
type Store struct {
	remote  Remote
	storage storage.Store
	runner  Spawner

	mu       sync.RWMutex
	snap     Snapshot
	fetching int

	// persistMu orders writes so the last persisted record is the latest
	// state.
	persistMu sync.Mutex

	listenersMu sync.Mutex
	listeners   []func(ctx context.Context)
	onClear     []func(ctx context.Context)
}

// New creates the store and rehydrates it from durable storage. A missing or
// unreadable record starts an anonymous session.
func New(ctx context.Context, remote Remote, store storage.Store, runner Spawner) (*Store, error) {
	s := &Store{remote: remote, storage: store, runner: runner}

	data, err := store.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load session: %w", err)
	default:
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			slog.Warn("Discarding unreadable session record", "error", err)
		} else if (snap.Token == "") != (snap.UserID == "") {
			slog.Warn("Discarding session record with partial credentials")
		} else {
			s.snap = snap
		}
	}

	remote.SetToken(s.snap.Token)
	slog.Info("Session loaded", "state", s.snap.State(), "userID", s.snap.UserID)
	return s, nil
}

// Snapshot returns a deep copy of the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.State()
}

func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.UserID
}

// ProfileLoading reports whether a profile fetch is in flight.
func (s *Store) ProfileLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetching > 0
}

// Profile returns a copy of the cached profile, or nil.
func (s *Store) Profile() *models.Profile {
	return s.Snapshot().Profile
}

// OnClear registers fn to run after every Clear, including the one done for
// a 401. Caches holding per-user data reset themselves here.
func (s *Store) OnClear(fn func(ctx context.Context)) {
	s.listenersMu.Lock()
	s.onClear = append(s.onClear, fn)
	s.listenersMu.Unlock()
}

// OnUnauthorized registers fn to run after a 401 has cleared the session.
func (s *Store) OnUnauthorized(fn func(ctx context.Context)) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

// Login exchanges credentials for a token, stores the token with the user id
// taken from its subject claim, then loads the profile. On failure the
// session is left untouched.
func (s *Store) Login(ctx context.Context, email, password string) error {
	token, err := s.remote.Login(ctx, email, password)
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return &AuthError{Reason: "invalid credentials", Err: err}
	}
	if err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}

	userID, err := SubjectFromToken(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snap.Token = token
	s.snap.UserID = userID
	s.mu.Unlock()
	s.remote.SetToken(token)
	s.persist(ctx)
	slog.Info("User logged in", "userID", userID)

	// A profile that fails to load leaves the user on onboarding.
	if err := s.FetchUser(ctx, userID); err != nil {
		slog.Error("Failed to fetch user after login", "userID", userID, "error", err)
	}
	return nil
}

// Register creates an account with placeholder body metrics and logs in.
func (s *Store) Register(ctx context.Context, email, password, country, region string) error {
	req := models.RegisterAccountRequest{
		Email:         email,
		Password:      password,
		Age:           defaultAge,
		Weight:        defaultWeight,
		Height:        defaultHeight,
		Gender:        mapping.Genders.External(models.GenderFemale),
		Goal:          mapping.Goals.External(models.GoalLoseWeight),
		ActivityLevel: mapping.ActivityLevels.External(models.ActivityModerate),
		Country:       country,
		Region:        region,
	}
	if err := s.remote.RegisterAccount(ctx, req); err != nil {
		return fmt.Errorf("failed to register account: %w", err)
	}
	slog.Info("Account registered", "email", email)
	return s.Login(ctx, email, password)
}

// FetchUser loads the remote profile for userID. A record without a name
// counts as no profile. The result is dropped if the session no longer
// belongs to userID.
func (s *Store) FetchUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.fetching++
	s.mu.Unlock()

	var profile *models.Profile
	ext, err := s.remote.GetUser(ctx, userID)
	switch {
	case errors.Is(err, apiclient.ErrNotFound):
	case err != nil:
		err = fmt.Errorf("failed to fetch user: %w", err)
	default:
		if p := models.Merge(models.Profile{}, mapping.FromExternal(ext)); p.Name != "" {
			profile = &p
		}
	}

	s.mu.Lock()
	s.fetching--
	if s.snap.UserID != userID {
		s.mu.Unlock()
		slog.Info("Dropping profile for a previous session", "userID", userID)
		return err
	}
	s.snap.Profile = profile
	s.mu.Unlock()

	s.persist(ctx)
	return err
}

// UpdateUserProfile merges patch into the cached profile right away and
// pushes it in the background. A failed push is reported but the local
// change is kept. The returned handle is nil when no user is logged in.
func (s *Store) UpdateUserProfile(ctx context.Context, patch models.ProfilePatch) *worker.Handle {
	s.mu.Lock()
	var base models.Profile
	if s.snap.Profile != nil {
		base = *s.snap.Profile
	}
	merged := models.Merge(base, patch)
	s.snap.Profile = &merged
	userID := s.snap.UserID
	s.mu.Unlock()

	s.persist(ctx)
	if userID == "" {
		return nil
	}

	payload := mapping.ToExternal(patch)
	return s.runner.Spawn(ctx, events.TaskProfilePush, userID, func(ctx context.Context) error {
		return s.remote.UpdateUser(ctx, userID, payload)
	})
}

// CommitProfile pushes the full profile and waits for the service to accept
// it before replacing the cached profile.
func (s *Store) CommitProfile(ctx context.Context, profile models.Profile) error {
	userID := s.UserID()
	if userID == "" {
		return ErrNoSession
	}

	// Location is set at registration; an unknown one must not erase it.
	patch := profile.AsPatch()
	if profile.Country == "" {
		patch.Country = nil
	}
	if profile.Region == "" {
		patch.Region = nil
	}
	if err := s.remote.UpdateUser(ctx, userID, mapping.ToExternal(patch)); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	committed := profile.Clone()
	s.mu.Lock()
	if s.snap.UserID != userID {
		s.mu.Unlock()
		return ErrSessionChanged
	}
	s.snap.Profile = &committed
	s.mu.Unlock()

	s.persist(ctx)
	slog.Info("Profile saved", "userID", userID)
	return nil
}

// Clear logs out: the durable record is erased and the session reset.
// Clearing an empty session is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.persistMu.Lock()
	s.mu.Lock()
	s.snap = Snapshot{}
	s.mu.Unlock()
	s.remote.SetToken("")
	err := s.storage.Delete(ctx, StorageKey)
	s.persistMu.Unlock()

	s.notify(ctx, &s.onClear)
	if err != nil {
		return fmt.Errorf("failed to erase session: %w", err)
	}
	return nil
}

// HandleUnauthorized clears the session and notifies listeners. It is
// registered as the API client's 401 hook.
func (s *Store) HandleUnauthorized(ctx context.Context) {
	slog.Warn("Access token rejected, clearing session", "userID", s.UserID())
	if err := s.Clear(ctx); err != nil {
		slog.Error("Failed to clear session", "error", err)
	}

	s.notify(ctx, &s.listeners)
}

func (s *Store) notify(ctx context.Context, list *[]func(context.Context)) {
	s.listenersMu.Lock()
	fns := append([]func(context.Context){}, *list...)
	s.listenersMu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}

// persist writes the current snapshot. Storage errors are logged; the
// in-memory session stays authoritative.
func (s *Store) persist(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	snap := s.Snapshot()
	var err error
	if snap.State() == Anonymous && snap.Profile == nil {
		err = s.storage.Delete(ctx, StorageKey)
	} else {
		var data []byte
		if data, err = json.Marshal(snap); err == nil {
			err = s.storage.Set(ctx, StorageKey, data)
		}
	}
	if err != nil {
		slog.Error("Failed to persist session", "error", err)
	}
}
