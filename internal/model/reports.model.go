package model

import "time"

// Common provenance fields shared by all SMS-origin reports. ContactNumber
// is always the verified transport-layer sender, never a number extracted
// from the message text.
type Provenance struct {
	ReporterName   string `json:"reporter_name"`
	ContactNumber  string `json:"contact_number"`
	ReportedViaSMS bool   `json:"reported_via_sms"`
	SmsSenderPhone string `json:"sms_sender_phone"`
}

// ReportFilter controls List queries on the report tables.
type ReportFilter struct {
	Status *string // equals, matches the category's status labels
	Sender *string // equals (transport-layer sender)
	From   *time.Time
	To     *time.Time
	Limit  int  // default 50
	Offset int  // for pagination
	Desc   bool // order by created_at
}

type DisasterReport struct {
	ID             int64          `json:"id"`
	DisasterType   string         `json:"disaster_type"`
	Severity       string         `json:"severity"`
	PeopleAffected *string        `json:"people_affected"`
	Casualties     *string        `json:"casualties"`
	Needs          *DisasterNeeds `json:"needs"`
	Description    string         `json:"description"`
	Location       Location       `json:"location"`
	OccurredDate   *string        `json:"occurred_date"`
	AreaSize       *string        `json:"area_size"`
	Status         string         `json:"status"`
	Provenance
	CreatedAt time.Time `json:"created_at"`
}

type MissingPersonReport struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Age          int      `json:"age"`
	Gender       string   `json:"gender"`
	Description  string   `json:"description"`
	Location     Location `json:"location"`
	LastSeenDate string   `json:"last_seen_date"`
	Status       string   `json:"status"`
	Provenance
	CreatedAt time.Time `json:"created_at"`
}

type AnimalRescueReport struct {
	ID          int64    `json:"id"`
	AnimalType  string   `json:"animal_type"`
	Breed       *string  `json:"breed"`
	Condition   string   `json:"condition"`
	IsDangerous bool     `json:"is_dangerous"`
	Notes       string   `json:"notes"`
	Location    Location `json:"location"`
	Status      string   `json:"status"`
	Provenance
	CreatedAt time.Time `json:"created_at"`
}
