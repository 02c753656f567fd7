package config

import (
	"github.com/go-playground/validator/v10"

	metropyerrors "github.com/metropipe/metropipe/pkg/errors"
)

// Settings holds the reserved, statically-shaped top-level configuration
// keys every invocation carries, validated with go-playground/validator.
type Settings struct {
	MainDirectory string `validate:"required"`
	RandomSeed    *int64 `validate:"omitempty"`
}

var settingsValidator = validator.New()

// LoadSettings extracts and validates the reserved top-level keys from a
// Configuration: "main_directory" and the optional "random_seed".
func LoadSettings(cfg *Configuration) (Settings, error) {
	settings := Settings{MainDirectory: cfg.MainDirectory()}

	if raw, ok := cfg.Get("random_seed"); ok {
		validated, err := (IntValidator{}).Validate(raw)
		if err != nil {
			return Settings{}, metropyerrors.NewConfigurationError("random_seed", err.Error(), err)
		}
		seed := int64(validated.(int))
		settings.RandomSeed = &seed
	}

	if err := settingsValidator.Struct(settings); err != nil {
		return Settings{}, metropyerrors.NewConfigurationError("", err.Error(), err)
	}

	return settings, nil
}
