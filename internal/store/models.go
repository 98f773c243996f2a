package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of an import session.
type Status string

const (
	StatusPending        Status = "pending"
	StatusNeedsSelection Status = "needs_selection"
	StatusResearching    Status = "researching"
	StatusComplete       Status = "complete"
	StatusFailed         Status = "failed"
)

// UserConfirmedConfidence is the confidence recorded when a species comes from
// an explicit user selection rather than automated inference. The fixed value
// marks the record as human-verified.
const UserConfirmedConfidence = 0.7

var allStatuses = []Status{
	StatusPending,
	StatusNeedsSelection,
	StatusResearching,
	StatusComplete,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// statusRank orders statuses so transitions only ever move forward.
// complete and failed share a rank: both are terminal outcomes.
var statusRank = map[Status]int{
	StatusPending:        0,
	StatusNeedsSelection: 1,
	StatusResearching:    2,
	StatusComplete:       3,
	StatusFailed:         3,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status is a final outcome.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// CanTransition reports whether moving from s to next respects the monotonic
// forward ordering of the session lifecycle.
func (s Status) CanTransition(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Suggestion is one candidate species offered to the user for disambiguation.
type Suggestion struct {
	Species        string  `json:"species"`
	ScientificName string  `json:"scientificName,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// CareDetails captures the care research produced for an identified species.
type CareDetails struct {
	WateringIntervalDays    int    `json:"wateringIntervalDays,omitempty"`
	FertilizingIntervalDays int    `json:"fertilizingIntervalDays,omitempty"`
	Light                   string `json:"light,omitempty"`
	Notes                   string `json:"notes,omitempty"`
}

// Session represents an import session persisted in SQLite.
type Session struct {
	ID                string
	OwnerID           int64
	Status            Status
	PhotoID           string
	IdentifiedSpecies string
	ScientificName    string
	Confidence        *float64
	SuggestionsJSON   string
	CareJSON          string
	ErrorMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastHeartbeat     *time.Time
}

// Suggestions decodes the candidate list. Empty when no suggestions are stored.
func (s *Session) Suggestions() ([]Suggestion, error) {
	if strings.TrimSpace(s.SuggestionsJSON) == "" {
		return nil, nil
	}
	var out []Suggestion
	if err := json.Unmarshal([]byte(s.SuggestionsJSON), &out); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return out, nil
}

// SetSuggestions encodes and stores the candidate list.
func (s *Session) SetSuggestions(suggestions []Suggestion) error {
	if len(suggestions) == 0 {
		s.SuggestionsJSON = ""
		return nil
	}
	data, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}
	s.SuggestionsJSON = string(data)
	return nil
}

// Care decodes the researched care details, if any.
func (s *Session) Care() (*CareDetails, error) {
	if strings.TrimSpace(s.CareJSON) == "" {
		return nil, nil
	}
	var out CareDetails
	if err := json.Unmarshal([]byte(s.CareJSON), &out); err != nil {
		return nil, fmt.Errorf("decode care details: %w", err)
	}
	return &out, nil
}

// SetCare encodes and stores the researched care details.
func (s *Session) SetCare(care *CareDetails) error {
	if care == nil {
		s.CareJSON = ""
		return nil
	}
	data, err := json.Marshal(care)
	if err != nil {
		return fmt.Errorf("encode care details: %w", err)
	}
	s.CareJSON = string(data)
	return nil
}

// User is an account row.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Login is a live authentication token.
type Login struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Profile holds per-user profile fields, upserted as a single row.
type Profile struct {
	UserID      int64
	DisplayName string
	Location    string
	Experience  string
	UpdatedAt   time.Time
}

// Plant is a catalog entry owned by a user.
type Plant struct {
	ID                      int64
	OwnerID                 int64
	Name                    string
	Species                 string
	ScientificName          string
	AcquiredAt              *time.Time
	WateringIntervalDays    int
	FertilizingIntervalDays int
	LastWateredAt           *time.Time
	LastFertilizedAt        *time.Time
	Light                   string
	Notes                   string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// NeedsWater reports whether the watering interval has elapsed since the last watering.
func (p *Plant) NeedsWater(now time.Time) bool {
	if p.WateringIntervalDays <= 0 {
		return false
	}
	if p.LastWateredAt == nil {
		return true
	}
	return now.Sub(*p.LastWateredAt) >= time.Duration(p.WateringIntervalDays)*24*time.Hour
}

// Photo is an uploaded image record; the blob lives on disk.
type Photo struct {
	ID          string
	OwnerID     int64
	PlantID     *int64
	Filename    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}
