package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Category is the report type the classifier picked.
type Category string

const (
	CategoryDisaster      Category = "disaster"
	CategoryMissingPerson Category = "missing_person"
	CategoryAnimalRescue  Category = "animal_rescue"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryDisaster, CategoryMissingPerson, CategoryAnimalRescue:
		return true
	}
	return false
}

// Table returns the storage table the category persists into.
func (c Category) Table() string {
	switch c {
	case CategoryDisaster:
		return "disasters"
	case CategoryMissingPerson:
		return "missing_persons"
	case CategoryAnimalRescue:
		return "animal_rescues"
	}
	return ""
}

var (
	ErrUnknownCategory = errors.New("unknown report category")
	ErrInvalidShape    = errors.New("classifier output does not match the category schema")
)

// DisasterNeeds is the set of needs flags the classifier may report.
type DisasterNeeds struct {
	Rescue     bool `json:"rescue"`
	Medical    bool `json:"medical"`
	Shelter    bool `json:"shelter"`
	Food       bool `json:"food"`
	Water      bool `json:"water"`
	Evacuation bool `json:"evacuation"`
}

type DisasterData struct {
	DisasterType    string         `json:"disaster_type"`
	Severity        string         `json:"severity"`
	PeopleAffected  *string        `json:"people_affected"`
	Casualties      *string        `json:"casualties"`
	Needs           *DisasterNeeds `json:"needs"`
	LocationAddress string         `json:"location_address"`
	OccurredDate    *string        `json:"occurred_date"`
	AreaSize        *string        `json:"area_size"`
	ReporterName    string         `json:"reporter_name"`
}

type MissingPersonData struct {
	Name            string  `json:"name"`
	Age             int     `json:"age"`
	Gender          string  `json:"gender"`
	Description     *string `json:"description"`
	LocationAddress string  `json:"location_address"`
	LastSeenDate    string  `json:"last_seen_date"`
	ReporterName    string  `json:"reporter_name"`
}

type AnimalRescueData struct {
	AnimalType      string  `json:"animal_type"`
	Breed           *string `json:"breed"`
	Condition       string  `json:"condition"`
	IsDangerous     bool    `json:"is_dangerous"`
	LocationAddress string  `json:"location_address"`
	ReporterName    string  `json:"reporter_name"`
}

// ClassifiedReport is the model's structured interpretation of one SMS.
// Exactly one of the category payloads is set, matching Category. Nothing
// outside these typed shapes survives the decode: unknown fields from the
// model are a hard decode error, which is the trust boundary against
// prompt-injected keys.
type ClassifiedReport struct {
	Category   Category
	Confidence float64
	RawMessage string

	Disaster      *DisasterData
	MissingPerson *MissingPersonData
	AnimalRescue  *AnimalRescueData
}

// Address returns the classifier-extracted free-text address for the
// report, regardless of category.
func (r *ClassifiedReport) Address() string {
	switch r.Category {
	case CategoryDisaster:
		if r.Disaster != nil {
			return r.Disaster.LocationAddress
		}
	case CategoryMissingPerson:
		if r.MissingPerson != nil {
			return r.MissingPerson.LocationAddress
		}
	case CategoryAnimalRescue:
		if r.AnimalRescue != nil {
			return r.AnimalRescue.LocationAddress
		}
	}
	return ""
}

// Data returns the category payload as an untyped value, for response
// echoing only. Builders never touch this.
func (r *ClassifiedReport) Data() any {
	switch r.Category {
	case CategoryDisaster:
		return r.Disaster
	case CategoryMissingPerson:
		return r.MissingPerson
	case CategoryAnimalRescue:
		return r.AnimalRescue
	}
	return nil
}

type classifierEnvelope struct {
	Category   Category        `json:"category"`
	Confidence float64         `json:"confidence"`
	Data       json.RawMessage `json:"data"`
}

// DecodeClassifiedReport parses the classifier's JSON output into a typed
// ClassifiedReport. Decoding is strict: the envelope and the category
// payload both reject unknown fields.
func DecodeClassifiedReport(raw []byte, originalMessage string) (*ClassifiedReport, error) {
	var env classifierEnvelope
	if err := strictUnmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if !env.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, env.Category)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data object", ErrInvalidShape)
	}

	report := &ClassifiedReport{
		Category:   env.Category,
		Confidence: clampConfidence(env.Confidence),
		RawMessage: originalMessage,
	}

	var err error
	switch env.Category {
	case CategoryDisaster:
		d := &DisasterData{}
		err = strictUnmarshal(env.Data, d)
		report.Disaster = d
	case CategoryMissingPerson:
		m := &MissingPersonData{}
		err = strictUnmarshal(env.Data, m)
		report.MissingPerson = m
	case CategoryAnimalRescue:
		a := &AnimalRescueData{}
		err = strictUnmarshal(env.Data, a)
		report.AnimalRescue = a
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}

	return report, nil
}

func strictUnmarshal(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
