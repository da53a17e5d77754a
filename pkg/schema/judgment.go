package schema

// Severity is the normalized seriousness of a possible offense.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// DisclaimerMarker must appear in every Judgment.Disclaimer.
const DisclaimerMarker = "법률 자문"

type Judgment struct {
	Summary        string  `json:"summary" jsonschema_description:"One or two sentence summary of the story"`
	PossibleCrimes []Crime `json:"possible_crimes" jsonschema_description:"Possible offenses, most likely first; empty if none apply"`
	Verdict        string  `json:"verdict" jsonschema_description:"Hedged overall assessment; never a definite finding of guilt"`
	Disclaimer     string  `json:"disclaimer" jsonschema_description:"Notice that this is not legal advice"`
}

type Crime struct {
	Title    string   `json:"title" jsonschema_description:"Name of the possible offense"`
	Basis    string   `json:"basis" jsonschema_description:"Short reasoning grounded in the story"`
	Severity Severity `json:"severity" jsonschema:"enum=LOW,enum=MEDIUM,enum=HIGH" jsonschema_description:"LOW (경미), MEDIUM (중간) or HIGH (중대)"`
}

// StoryRequest is the JSON body of POST /api/judge.
type StoryRequest struct {
	Story string `json:"story" form:"story" validate:"required,min=3,max=5000"`
}
