package handbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/database"
	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/store"
	"github.com/benvon/handbook/internal/validation"
)

// DefaultDisplayName is shown until the user sets a name
const DefaultDisplayName = "Administrator"

// ProfileUpdate changes the fields that are set
type ProfileUpdate struct {
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=80"`
	Avatar      *string `json:"avatar,omitempty" validate:"omitempty,max=2800000"`
	Theme       *string `json:"theme,omitempty" validate:"omitempty,theme"`
}

// PreferencesUpdate changes the toggles that are set
type PreferencesUpdate struct {
	AIEnabled     *bool `json:"aiEnabled,omitempty"`
	Notifications *bool `json:"notifications,omitempty"`
	Biometrics    *bool `json:"biometrics,omitempty"`
}

// Settings is the profile, preferences and data-reset surface.
// Profile fields are stored as plain strings under their own keys.
type Settings struct {
	kv          database.KV
	collections *Collections
	logger      *zap.Logger

	mu sync.Mutex
	// prefs holds preferences that storage rejected; nil when storage is in sync
	prefs *models.Preferences
}

// NewSettings creates the settings surface
func NewSettings(kv database.KV, collections *Collections, logger *zap.Logger) *Settings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settings{kv: kv, collections: collections, logger: logger}
}

// Profile returns the stored profile with defaults for absent fields
func (s *Settings) Profile(ctx context.Context) (models.Profile, error) {
	profile := models.Profile{DisplayName: DefaultDisplayName, Theme: models.ThemeSystem}

	name, err := s.getString(ctx, store.KeyUserName)
	if err != nil {
		return profile, err
	}
	if name != "" {
		profile.DisplayName = name
	}
	if profile.Avatar, err = s.getString(ctx, store.KeyUserAvatar); err != nil {
		return profile, err
	}
	theme, err := s.getString(ctx, store.KeyTheme)
	if err != nil {
		return profile, err
	}
	if validation.ValidateTheme(theme) == nil {
		profile.Theme = models.Theme(theme)
	}
	return profile, nil
}

// UpdateProfile writes the set fields and returns the resulting profile
func (s *Settings) UpdateProfile(ctx context.Context, update ProfileUpdate) (models.Profile, error) {
	if update.DisplayName != nil {
		name := validation.SanitizeText(*update.DisplayName)
		update.DisplayName = &name
	}
	if err := validation.Validate.Struct(update); err != nil {
		return models.Profile{}, &ValidationError{Err: err}
	}

	writes := []struct {
		key   string
		value *string
	}{
		{store.KeyUserName, update.DisplayName},
		{store.KeyUserAvatar, update.Avatar},
		{store.KeyTheme, update.Theme},
	}
	for _, w := range writes {
		if w.value == nil {
			continue
		}
		var err error
		if *w.value == "" {
			err = s.kv.Delete(ctx, w.key)
		} else {
			err = s.kv.Put(ctx, w.key, []byte(*w.value))
		}
		if err != nil {
			return models.Profile{}, &store.StorageWriteError{Key: w.key, Err: err}
		}
	}
	return s.Profile(ctx)
}

// Preferences returns the stored toggles, defaulting when absent or unreadable
func (s *Settings) Preferences(ctx context.Context) (models.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferencesLocked(ctx)
}

func (s *Settings) preferencesLocked(ctx context.Context) (models.Preferences, error) {
	if s.prefs != nil {
		return *s.prefs, nil
	}

	data, err := s.kv.Get(ctx, store.KeyPreferences)
	if errors.Is(err, database.ErrNotFound) {
		return models.DefaultPreferences(), nil
	}
	if err != nil {
		return models.DefaultPreferences(), fmt.Errorf("failed to load preferences: %w", err)
	}

	prefs := models.DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.logger.Warn("corrupt_preferences_state", zap.Error(err))
		return models.DefaultPreferences(), &store.CorruptStateError{Key: store.KeyPreferences, Err: err}
	}
	return prefs, nil
}

// UpdatePreferences applies the set toggles. On a write failure the new values stay in
// effect for this process.
func (s *Settings) UpdatePreferences(ctx context.Context, update PreferencesUpdate) (models.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.preferencesLocked(ctx)
	if err != nil && !store.IsRecoverable(err) {
		return models.Preferences{}, err
	}
	if update.AIEnabled != nil {
		prefs.AIEnabled = *update.AIEnabled
	}
	if update.Notifications != nil {
		prefs.Notifications = *update.Notifications
	}
	if update.Biometrics != nil {
		prefs.Biometrics = *update.Biometrics
	}

	data, err := json.Marshal(prefs)
	if err == nil {
		err = s.kv.Put(ctx, store.KeyPreferences, data)
	}
	if err != nil {
		s.prefs = &prefs
		s.logger.Warn("storage_write_failed", zap.String("key", store.KeyPreferences), zap.Error(err))
		return prefs, &store.StorageWriteError{Key: store.KeyPreferences, Err: err}
	}
	s.prefs = nil
	s.logger.Info("preferences_updated",
		zap.Bool("ai_enabled", prefs.AIEnabled),
		zap.Bool("notifications", prefs.Notifications),
		zap.Bool("biometrics", prefs.Biometrics),
	)
	return prefs, nil
}

// AIEnabled reports the AI engine toggle. Unreadable preferences fall back to the default.
func (s *Settings) AIEnabled(ctx context.Context) bool {
	prefs, _ := s.Preferences(ctx)
	return prefs.AIEnabled
}

// ClearAll deletes every Handbook key. The next load re-seeds the collections.
func (s *Settings) ClearAll(ctx context.Context) error {
	var errs []error
	for _, reset := range []func(context.Context) error{
		s.collections.Reminders.Reset,
		s.collections.Transactions.Reset,
		s.collections.Todos.Reset,
		s.collections.Recurring.Reset,
	} {
		if err := reset(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, key := range []string{store.KeyUserName, store.KeyUserAvatar, store.KeyTheme, store.KeyPreferences} {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, &store.StorageWriteError{Key: key, Err: err})
		}
	}

	s.mu.Lock()
	s.prefs = nil
	s.mu.Unlock()

	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("clear_all_incomplete", zap.Error(err))
		return err
	}
	s.logger.Info("all_data_cleared", zap.Int("keys", len(store.AllKeys)))
	return nil
}

func (s *Settings) getString(ctx context.Context, key string) (string, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return string(data), nil
}
