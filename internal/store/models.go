package store

import "time"

type TestStatus string

const (
	StatusDraft     TestStatus = "draft"
	StatusRunning   TestStatus = "running"
	StatusPaused    TestStatus = "paused"
	StatusCompleted TestStatus = "completed"
)

type Test struct {
	ID               string     `json:"id"`
	ProjectID        string     `json:"project_id"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	Status           TestStatus `json:"status"`
	StartAt          *time.Time `json:"start_at,omitempty"`
	EndAt            *time.Time `json:"end_at,omitempty"`
	Variants         []Variant  `json:"variants"` // First variant is the control
	PrimaryMetric    string     `json:"primary_metric"`
	SecondaryMetrics []string   `json:"secondary_metrics,omitempty"`
	Results          *Results   `json:"results,omitempty"` // Last computed snapshot, if any
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Control returns the baseline variant, or nil for a test without variants.
func (t *Test) Control() *Variant {
	if len(t.Variants) == 0 {
		return nil
	}
	return &t.Variants[0]
}

// Variant looks up a variant by id.
func (t *Test) Variant(id string) *Variant {
	for i := range t.Variants {
		if t.Variants[i].ID == id {
			return &t.Variants[i]
		}
	}
	return nil
}

type Variant struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Weight      float64        `json:"weight"`
	Config      map[string]any `json:"config,omitempty"` // Opaque treatment payload
}

type Assignment struct {
	TestID     string    `json:"test_id"`
	VisitorID  string    `json:"visitor_id"`
	VariantID  string    `json:"variant_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

type Event struct {
	ID        string    `json:"id"`
	TestID    string    `json:"test_id"`
	VisitorID string    `json:"visitor_id"`
	VariantID string    `json:"variant_id"`
	EventType string    `json:"event_type"`
	Value     *float64  `json:"value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VariantCounts holds distinct bucketed visitors and distinct converting
// visitors for one variant.
type VariantCounts struct {
	VariantID   string
	Visitors    int
	Conversions int
}

type Results struct {
	TotalVisitors    int             `json:"total_visitors"`
	TotalConversions int             `json:"total_conversions"`
	ConversionRate   float64         `json:"conversion_rate"`
	Significance     float64         `json:"significance"`
	ConfidenceLevel  float64         `json:"confidence_level"`
	WinnerVariantID  string          `json:"winner_variant_id,omitempty"` // Empty when no variant qualifies
	Variants         []VariantResult `json:"variants"`
	Insights         []string        `json:"insights"`
	Recommendations  []string        `json:"recommendations"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

func (r *Results) HasWinner() bool {
	return r.WinnerVariantID != ""
}

type VariantResult struct {
	VariantID      string  `json:"variant_id"`
	Name           string  `json:"name"`
	Visitors       int     `json:"visitors"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
	CILower        float64 `json:"ci_lower"`
	CIUpper        float64 `json:"ci_upper"`
	Improvement    float64 `json:"improvement"`
	Significance   float64 `json:"significance"`
}
