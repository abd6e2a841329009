package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
	"github.com/oskaz/oskaz-api/pkg/logger"
	"github.com/oskaz/oskaz-api/pkg/snapshot"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	defaultLanguage = "en"
	slotPrefix      = "prefs:"
)

// Preferences is the per-session display configuration. Set validates after
// normalization, so raw client input is accepted here as-is.
type Preferences struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

// Defaults returns the preferences applied before a session ever saves any.
func Defaults() Preferences {
	return Preferences{Theme: ThemeLight, Language: defaultLanguage}
}

// Service persists per-session preferences through the snapshot backend.
// Unreadable or corrupt snapshots fall back to defaults.
type Service struct {
	snapshots snapshot.Store
	logg      *logger.Logger
}

func NewService(snapshots snapshot.Store, logg *logger.Logger) (*Service, error) {
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	return &Service{snapshots: snapshots, logg: logg}, nil
}

// Get loads the session's preferences, falling back to defaults.
func (s *Service) Get(ctx context.Context, sessionID string) Preferences {
	if strings.TrimSpace(sessionID) == "" {
		return Defaults()
	}

	payload, err := s.snapshots.Load(ctx, slotPrefix+sessionID)
	if err != nil {
		if err != snapshot.ErrNotFound && s.logg != nil {
			s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "preferences snapshot unreadable, using defaults")
		}
		return Defaults()
	}

	var prefs Preferences
	if err := json.Unmarshal(payload, &prefs); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "preferences snapshot corrupt, using defaults")
		}
		return Defaults()
	}
	return normalize(prefs)
}

// Set validates and persists the session's preferences.
func (s *Service) Set(ctx context.Context, sessionID string, prefs Preferences) (Preferences, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Preferences{}, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	prefs = normalize(prefs)
	if prefs.Theme != ThemeLight && prefs.Theme != ThemeDark {
		return Preferences{}, pkgerrors.New(pkgerrors.CodeValidation, "theme must be light or dark")
	}
	if len(prefs.Language) < 2 || len(prefs.Language) > 8 {
		return Preferences{}, pkgerrors.New(pkgerrors.CodeValidation, "language must be 2 to 8 characters")
	}

	payload, err := json.Marshal(prefs)
	if err != nil {
		return Preferences{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode preferences")
	}
	if err := s.snapshots.Save(ctx, slotPrefix+sessionID, payload); err != nil {
		return Preferences{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist preferences")
	}
	return prefs, nil
}

func normalize(prefs Preferences) Preferences {
	prefs.Theme = strings.ToLower(strings.TrimSpace(prefs.Theme))
	prefs.Language = strings.ToLower(strings.TrimSpace(prefs.Language))
	if prefs.Theme == "" {
		prefs.Theme = ThemeLight
	}
	if prefs.Language == "" {
		prefs.Language = defaultLanguage
	}
	return prefs
}
