package config

import (
	"fmt"
	"mime"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if !cfg.API.Enabled {
		return fmt.Errorf("api: at least one adapter must be enabled")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.API.Port {
		return fmt.Errorf("metrics: port %d is already used by the api", cfg.Metrics.Port)
	}

	if _, err := language.Parse(cfg.View.Locale); err != nil {
		return fmt.Errorf("view.locale: invalid locale %q: %w", cfg.View.Locale, err)
	}

	if cfg.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload.max_size: must be > 0")
	}
	for i, t := range cfg.Upload.AllowedTypes {
		if _, _, err := mime.ParseMediaType(t); err != nil {
			return fmt.Errorf("upload.allowed_types[%d]: invalid media type %q", i, t)
		}
	}
	if strings.Count(cfg.Upload.ThumbnailTemplate, "%s") != 1 {
		return fmt.Errorf("upload.thumbnail_template: must contain exactly one %%s")
	}

	if len(cfg.Users) == 0 {
		return fmt.Errorf("users: at least one user must be configured")
	}

	ids := make(map[string]bool)
	emails := make(map[string]bool)
	for i, u := range cfg.Users {
		if ids[u.ID] {
			return fmt.Errorf("users[%d]: duplicate user id %q", i, u.ID)
		}
		ids[u.ID] = true

		if u.Email == "" {
			continue
		}
		email := strings.ToLower(u.Email)
		if emails[email] {
			return fmt.Errorf("users[%d]: duplicate email %q", i, u.Email)
		}
		emails[email] = true
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
