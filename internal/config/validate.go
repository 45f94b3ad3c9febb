package config

import (
	"errors"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"

	"github.com/dshills/docfold/internal/fold"
)

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks every setting and returns all failures joined. Each
// failure is a *ValidationError matching ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if _, err := fold.ParseStartMatch(c.Fold.StartMatch); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "fold.start_match",
			Value:   c.Fold.StartMatch,
			Message: `must be "exact" or "prefix"`,
		})
	}
	if c.Fold.DelayMS < 0 {
		errs = append(errs, &ValidationError{
			Field:   "fold.delay_ms",
			Value:   c.Fold.DelayMS,
			Message: "must not be negative",
		})
	}
	if c.Fold.UnfoldClassesIntervalMS < 0 {
		errs = append(errs, &ValidationError{
			Field:   "fold.unfold_classes_interval_ms",
			Value:   c.Fold.UnfoldClassesIntervalMS,
			Message: "must not be negative",
		})
	}
	for _, p := range c.Fold.AttachPrefixes {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, &ValidationError{
				Field:   "fold.attach_prefixes",
				Value:   c.Fold.AttachPrefixes,
				Message: "prefixes must not be blank",
			})
			break
		}
	}
	if !logLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, &ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be debug, info, warn or error",
		})
	}
	if c.View.TabWidth < 1 || c.View.TabWidth > 16 {
		errs = append(errs, &ValidationError{
			Field:   "view.tab_width",
			Value:   c.View.TabWidth,
			Message: "must be between 1 and 16",
		})
	}
	if c.View.Theme != "" && !slices.Contains(styles.Names(), c.View.Theme) {
		errs = append(errs, &ValidationError{
			Field:   "view.theme",
			Value:   c.View.Theme,
			Message: "unknown chroma style",
		})
	}

	return errors.Join(errs...)
}
