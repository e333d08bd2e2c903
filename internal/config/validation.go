package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// fieldNamePattern matches the field names the rewriter can capture.
var fieldNamePattern = regexp.MustCompile(`^\w+$`)

// Validate validates the configuration using struct tags and custom rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	for i, field := range cfg.Rewrite.SkipFields {
		if !fieldNamePattern.MatchString(field) {
			return fmt.Errorf("rewrite.skip_fields[%d]: %q is not a word-character field name", i, field)
		}
	}

	// A cache inside the data tree would feed downloaded files back into
	// the enumeration.
	if pathsOverlap(cfg.Data.Root, cfg.Cache.Dir) {
		return fmt.Errorf("cache.dir %q and data.root %q must not contain each other", cfg.Cache.Dir, cfg.Data.Root)
	}

	if !cfg.Data.InPlace && cfg.Data.Suffix == cfg.Data.Extension {
		return fmt.Errorf("data.suffix %q would make outputs match data.extension", cfg.Data.Suffix)
	}

	return nil
}

// pathsOverlap reports whether one path equals or contains the other.
// Relative paths are resolved against the working directory.
func pathsOverlap(path1, path2 string) bool {
	abs1, err := filepath.Abs(path1)
	if err != nil {
		return false
	}
	abs2, err := filepath.Abs(path2)
	if err != nil {
		return false
	}
	if abs1 == abs2 {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(abs1+sep, abs2+sep) || strings.HasPrefix(abs2+sep, abs1+sep)
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
