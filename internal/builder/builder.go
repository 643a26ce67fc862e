// Package builder maps classified reports onto persisted record shapes.
// Only whitelisted, validated fields cross this boundary; anything else
// from the model is discarded. The authenticated transport-layer sender is
// authoritative over anything claimed inside the message body.
package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relieflink/report-gateway/internal/classifier"
	"github.com/relieflink/report-gateway/internal/model"
)

var ErrMissingPayload = errors.New("classified report has no payload for its category")

// Fixed defaults for absent or out-of-range optional fields.
const (
	DefaultSeverity  = "moderate"
	DefaultCondition = "trapped"
	DefaultGender    = "other"
	DefaultType      = "other"
)

var (
	disasterTypes  = stringSet("flood", "landslide", "fire", "earthquake", "cyclone", "drought", "tsunami", "building-collapse", "other")
	severities     = stringSet("low", "moderate", "high", "critical")
	peopleAffected = stringSet("0", "1-10", "11-50", "51-100", "100+")
	casualties     = stringSet("none", "minor", "serious", "fatalities")
	genders        = stringSet("male", "female", "other")
	animalTypes    = stringSet("dog", "cat", "cattle", "goat", "bird", "wildlife", "other")
	conditions     = stringSet("healthy", "injured", "trapped", "sick", "critical")
)

// BuildDisaster produces a disasters row from a disaster classification.
func BuildDisaster(r *model.ClassifiedReport, sender string, loc model.Location) (*model.DisasterReport, error) {
	d := r.Disaster
	if d == nil {
		return nil, ErrMissingPayload
	}

	return &model.DisasterReport{
		DisasterType:   pick(d.DisasterType, disasterTypes, DefaultType),
		Severity:       pick(d.Severity, severities, DefaultSeverity),
		PeopleAffected: pickPtr(d.PeopleAffected, peopleAffected),
		Casualties:     pickPtr(d.Casualties, casualties),
		Needs:          d.Needs,
		Description:    embedRawMessage("", r.RawMessage),
		Location:       loc,
		OccurredDate:   d.OccurredDate,
		AreaSize:       d.AreaSize,
		Status:         model.CategoryDisaster.StatusLabel(model.StateOpen),
		Provenance:     provenance(d.ReporterName, sender),
	}, nil
}

// BuildMissingPerson produces a missing_persons row.
func BuildMissingPerson(r *model.ClassifiedReport, sender string, loc model.Location) (*model.MissingPersonReport, error) {
	m := r.MissingPerson
	if m == nil {
		return nil, ErrMissingPayload
	}

	age := m.Age
	if age <= 0 || age > 130 {
		age = classifier.DefaultAge
	}

	desc := ""
	if m.Description != nil {
		desc = *m.Description
	}

	return &model.MissingPersonReport{
		Name:         strings.TrimSpace(m.Name),
		Age:          age,
		Gender:       pick(m.Gender, genders, DefaultGender),
		Description:  embedRawMessage(desc, r.RawMessage),
		Location:     loc,
		LastSeenDate: m.LastSeenDate,
		Status:       model.CategoryMissingPerson.StatusLabel(model.StateOpen),
		Provenance:   provenance(m.ReporterName, sender),
	}, nil
}

// BuildAnimalRescue produces an animal_rescues row.
func BuildAnimalRescue(r *model.ClassifiedReport, sender string, loc model.Location) (*model.AnimalRescueReport, error) {
	a := r.AnimalRescue
	if a == nil {
		return nil, ErrMissingPayload
	}

	return &model.AnimalRescueReport{
		AnimalType:  pick(a.AnimalType, animalTypes, DefaultType),
		Breed:       a.Breed,
		Condition:   pick(a.Condition, conditions, DefaultCondition),
		IsDangerous: a.IsDangerous,
		Notes:       embedRawMessage("", r.RawMessage),
		Location:    loc,
		Status:      model.CategoryAnimalRescue.StatusLabel(model.StateOpen),
		Provenance:  provenance(a.ReporterName, sender),
	}, nil
}

// provenance stamps the SMS origin. ContactNumber is always the verified
// sender phone; a number the model extracted from the text never wins.
func provenance(reporterName, sender string) model.Provenance {
	name := strings.TrimSpace(reporterName)
	if name == "" {
		name = classifier.DefaultReporterName
	}
	return model.Provenance{
		ReporterName:   name,
		ContactNumber:  sender,
		ReportedViaSMS: true,
		SmsSenderPhone: sender,
	}
}

// embedRawMessage keeps the origin SMS verbatim inside the record's
// free-text field so classification never loses the source.
func embedRawMessage(extracted, raw string) string {
	sms := fmt.Sprintf("[via SMS] %s", raw)
	extracted = strings.TrimSpace(extracted)
	if extracted == "" {
		return sms
	}
	return extracted + "\n\n" + sms
}

func pick(v string, allowed map[string]struct{}, fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if _, ok := allowed[v]; ok {
		return v
	}
	return fallback
}

// pickPtr validates an optional enum; invalid values become nil rather
// than a default, since these fields are nullable in the schema.
func pickPtr(v *string, allowed map[string]struct{}) *string {
	if v == nil {
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(*v))
	if _, ok := allowed[s]; !ok {
		return nil
	}
	return &s
}

func stringSet(values ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}
