// Package settings persists the user's display and speech preferences.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StorageKey is the key settings are persisted under.
const StorageKey = "settings"

// Rate and pitch bounds match what common speech engines accept.
const (
	MinRate  = 0.1
	MaxRate  = 10.0
	MinPitch = 0.0
	MaxPitch = 2.0
)

var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrInvalidValue   = errors.New("invalid setting value")
)

// Settings are user preferences. Zero fields are filled from Defaults on load.
type Settings struct {
	Theme    string  `json:"theme"`
	TTSRate  float64 `json:"ttsRate"`
	TTSPitch float64 `json:"ttsPitch"`
	TTSVoice string  `json:"ttsVoice"`
}

// Defaults returns the settings of a fresh install.
func Defaults() Settings {
	return Settings{Theme: "light", TTSRate: 1.0, TTSPitch: 1.0}
}

// Names lists the keys accepted by Set.
var Names = []string{"theme", "tts-rate", "tts-pitch", "tts-voice"}

// KV is the persistence settings need.
type KV interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// Load reads settings from kv, falling back to Defaults for a missing entry.
func Load(ctx context.Context, kv KV) (Settings, error) {
	s := Defaults()
	if _, err := kv.Get(ctx, StorageKey, &s); err != nil {
		return Defaults(), fmt.Errorf("load settings: %w", err)
	}
	d := Defaults()
	if s.Theme == "" {
		s.Theme = d.Theme
	}
	if s.TTSRate == 0 {
		s.TTSRate = d.TTSRate
	}
	return s, nil
}

// Save writes s to kv.
func Save(ctx context.Context, kv KV, s Settings) error {
	if err := kv.Set(ctx, StorageKey, s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Set applies name=value to s after validation.
func (s *Settings) Set(name, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "theme":
		v := strings.ToLower(value)
		if v != "light" && v != "dark" {
			return fmt.Errorf("%w: theme must be light or dark, got %q", ErrInvalidValue, value)
		}
		s.Theme = v
	case "tts-rate", "ttsrate":
		f, err := parseRange(value, MinRate, MaxRate)
		if err != nil {
			return fmt.Errorf("tts-rate: %w", err)
		}
		s.TTSRate = f
	case "tts-pitch", "ttspitch":
		f, err := parseRange(value, MinPitch, MaxPitch)
		if err != nil {
			return fmt.Errorf("tts-pitch: %w", err)
		}
		s.TTSPitch = f
	case "tts-voice", "ttsvoice":
		s.TTSVoice = value
	default:
		return fmt.Errorf("%w: %q (known: %s)", ErrUnknownSetting, name, strings.Join(Names, ", "))
	}
	return nil
}

func parseRange(value string, lo, hi float64) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, value)
	}
	if f < lo || f > hi {
		return 0, fmt.Errorf("%w: %v outside [%v, %v]", ErrInvalidValue, f, lo, hi)
	}
	return f, nil
}
