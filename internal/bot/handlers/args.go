package handlers

import (
	"github.com/edgard/nestbot/internal/nest"
)

// formFieldCount is the number of "|" separated fields of /create.
const formFieldCount = 9

// keepField marks an /edit field that keeps its current value.
const keepField = "-"

// parseForm builds an EventForm from the /create fields. Fields equal to
// keepField, or left empty, take their value from base.
func parseForm(fields []string, base nest.EventForm) (nest.EventForm, bool) {
	if len(fields) != formFieldCount {
		return nest.EventForm{}, false
	}
	targets := []*string{
		&base.Name,
		&base.Description,
		&base.StartDate,
		&base.StartTime,
		&base.EndDate,
		&base.EndTime,
		&base.LocationName,
		&base.LocationURL,
		&base.City,
	}
	for i, f := range fields {
		if f == "" || f == keepField {
			continue
		}
		*targets[i] = f
	}
	return base, true
}
