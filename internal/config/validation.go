package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// cronParser accepts the same schedules the scheduler can register: five
// fields, six with a leading seconds field, or an @descriptor.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule checks a cron expression and reports whether it carries a
// seconds field.
func ParseSchedule(spec string) (withSeconds bool, err error) {
	if _, err := cronParser.Parse(spec); err != nil {
		return false, err
	}
	return !strings.HasPrefix(spec, "@") && len(strings.Fields(spec)) == 6, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		_, err := ParseSchedule(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return err
	}

	for name, task := range c.Scheduler.Tasks {
		if task.Enabled && task.Schedule == "" {
			return fmt.Errorf("scheduler task %q is enabled but has no schedule", name)
		}
	}
	return nil
}

// HasCity reports whether city is one of the configured cities, ignoring
// case, and returns its canonical spelling.
func (c *Config) HasCity(city string) (string, bool) {
	for _, known := range c.Events.Cities {
		if strings.EqualFold(strings.TrimSpace(city), known) {
			return known, true
		}
	}
	return "", false
}
