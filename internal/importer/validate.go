package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/expeditions/internal/domain"
)

var validConditions = map[string]bool{"": true, "always": true, "pass": true, "fail": true}

// ValidateImportSchema checks the schema before conversion and returns every
// problem found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	errs = append(errs, validateExpedition(&schema.Expedition, len(schema.Pins))...)

	refs := make(map[string]string)
	errs = append(errs, validatePins(schema.Pins, refs)...)
	errs = append(errs, validateConnections(schema.Connections, refs)...)

	return errs
}

func validateExpedition(e *ExpeditionImport, pinCount int) []error {
	var errs []error
	if e.Name == "" {
		errs = append(errs, fmt.Errorf("expedition.name is required"))
	}
	if e.ClassroomID == "" {
		errs = append(errs, fmt.Errorf("expedition.classroom_id is required"))
	}
	if e.Publish && pinCount == 0 {
		errs = append(errs, fmt.Errorf("expedition.publish: an expedition without pins cannot be published"))
	}
	return errs
}

func validatePins(pins []PinImport, refs map[string]string) []error {
	var errs []error
	for i, p := range pins {
		prefix := fmt.Sprintf("pins[%d]", i)
		if p.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if _, dup := refs[p.Ref]; dup {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, p.Ref))
		} else {
			refs[p.Ref] = p.Type
		}
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if !domain.ValidPinTypes[p.Type] {
			errs = append(errs, fmt.Errorf("%s.type: invalid pin type %q (expected INTRO, OBJECTIVE or FINAL)", prefix, p.Type))
		}
		errs = append(errs, validatePoints(prefix+".reward", p.Reward)...)
		errs = append(errs, validatePoints(prefix+".early_bonus", p.EarlyBonus)...)
		errs = append(errs, validateOptionalTime(prefix+".due_date", p.DueDate)...)
		errs = append(errs, validateOptionalTime(prefix+".early_submission_date", p.EarlySubmissionDate)...)
		if p.EarlyBonus != nil && p.EarlySubmissionDate == nil {
			errs = append(errs, fmt.Errorf("%s.early_bonus requires early_submission_date", prefix))
		}
	}
	return errs
}

func validatePoints(field string, pts *PointsImport) []error {
	if pts == nil {
		return nil
	}
	var errs []error
	if pts.XP < 0 {
		errs = append(errs, fmt.Errorf("%s.xp must be >= 0, got %d", field, pts.XP))
	}
	if pts.GP < 0 {
		errs = append(errs, fmt.Errorf("%s.gp must be >= 0, got %d", field, pts.GP))
	}
	return errs
}

func validateConnections(conns []ConnectionImport, refs map[string]string) []error {
	var errs []error
	seen := make(map[[2]string]bool)
	targets := make(map[string]bool)
	for i, c := range conns {
		prefix := fmt.Sprintf("connections[%d]", i)
		if _, ok := refs[c.From]; !ok {
			errs = append(errs, fmt.Errorf("%s.from: unknown pin ref %q", prefix, c.From))
		}
		if typ, ok := refs[c.To]; !ok {
			errs = append(errs, fmt.Errorf("%s.to: unknown pin ref %q", prefix, c.To))
		} else {
			targets[c.To] = true
			if typ == string(domain.PinIntro) {
				errs = append(errs, fmt.Errorf("%s.to: INTRO pin %q cannot have prerequisites", prefix, c.To))
			}
		}
		if c.From != "" && c.From == c.To {
			errs = append(errs, fmt.Errorf("%s: pin %q cannot connect to itself", prefix, c.From))
		}
		key := [2]string{c.From, c.To}
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s: duplicate connection %s -> %s", prefix, c.From, c.To))
		}
		seen[key] = true
		if !validConditions[c.When] {
			errs = append(errs, fmt.Errorf("%s.when: invalid condition %q (expected always, pass or fail)", prefix, c.When))
		}
	}
	if len(refs) > 0 && len(targets) == len(refs) {
		errs = append(errs, fmt.Errorf("pins: no entry pin, every pin has an incoming connection"))
	}
	return errs
}

func validateOptionalTime(field string, s *string) []error {
	if s == nil {
		return nil
	}
	if _, err := ParseTime(*s); err != nil {
		return []error{fmt.Errorf("%s: invalid time %q (expected RFC3339 or YYYY-MM-DD)", field, *s)}
	}
	return nil
}

// ParseTime accepts RFC3339 timestamps and plain dates. A plain date means the
// end of that day in UTC.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(24*time.Hour - time.Second), nil
}
