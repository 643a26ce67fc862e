package classifier

import (
	"fmt"
	"time"
)

// Fixed defaults the model is told to use instead of omitting fields.
const (
	DefaultReporterName = "SMS Reporter"
	DefaultAge          = 30
)

const promptTemplate = `You are an intake classifier for a disaster-relief coordination system.
An SMS was received from %s at %s. Classify it into exactly one category and
extract structured data. Respond with ONLY a JSON object, no prose, no markdown.

The JSON object must have exactly these keys:
  "category": one of "disaster", "missing_person", "animal_rescue"
  "confidence": a number between 0.0 and 1.0
  "data": an object whose shape depends on the category, defined below.

Category "disaster", data keys (all required, use null only where noted):
  "disaster_type": one of "flood", "landslide", "fire", "earthquake", "cyclone", "drought", "tsunami", "building-collapse", "other"
  "severity": one of "low", "moderate", "high", "critical"
  "people_affected": one of "0", "1-10", "11-50", "51-100", "100+" or null
  "casualties": one of "none", "minor", "serious", "fatalities" or null
  "needs": object with boolean keys "rescue", "medical", "shelter", "food", "water", "evacuation", or null
  "location_address": string, the place mentioned in the message
  "occurred_date": ISO 8601 date string or null
  "area_size": string or null
  "reporter_name": string

Category "missing_person", data keys (all required):
  "name": string
  "age": number (use %d if unknown)
  "gender": one of "male", "female", "other"
  "description": string or null
  "location_address": string
  "last_seen_date": ISO 8601 date string
  "reporter_name": string

Category "animal_rescue", data keys (all required):
  "animal_type": one of "dog", "cat", "cattle", "goat", "bird", "wildlife", "other"
  "breed": string or null
  "condition": one of "healthy", "injured", "trapped", "sick", "critical"
  "is_dangerous": boolean
  "location_address": string
  "reporter_name": string

Rules:
- Pick the single best category. Do not invent extra keys.
- Fill reasonable defaults instead of omitting fields: if the reporter's
  name is unknown use "%s", if an age is unknown use %d.
- location_address is the free-text place from the message; if no place is
  mentioned, use an empty string.

SMS message:
%s`

// BuildPrompt assembles the single classification prompt for one message.
func BuildPrompt(message, sender string, receivedAt time.Time) string {
	return fmt.Sprintf(promptTemplate,
		sender,
		receivedAt.UTC().Format(time.RFC3339),
		DefaultAge,
		DefaultReporterName,
		DefaultAge,
		message,
	)
}
