package store

import "time"

// Roles a user account can hold. Enterprise unlocks product tracking and
// on-demand analysis; admin additionally unlocks monitoring.
const (
	RoleNormal     = "normal"
	RoleEnterprise = "enterprise"
	RoleAdmin      = "admin"
)

// Sentiment labels produced by the upstream classifier.
const (
	LabelPositive   = "Positive"
	LabelNeutral    = "Neutral"
	LabelNegative   = "Negative"
	LabelIrrelevant = "Irrelevant"
)

type User struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"` // Do not expose this in JSON responses
	Role            string    `json:"role"`
	CompanyName     string    `json:"company_name,omitempty"`
	BusinessAddress string    `json:"business_address,omitempty"`
	TaxID           string    `json:"tax_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Comment is a crawled social-media comment already annotated by the
// classifier. Rows are immutable once written; this service only reads them.
type Comment struct {
	Product    string `json:"product"`
	Text       string `json:"text"`
	Author     string `json:"author"`
	Score      int    `json:"score"`
	Created    string `json:"created"` // "YYYY-MM-DD" as written by the crawler
	Prediction string `json:"prediction"`
}

// Summary is a cached per-product aggregate. Rows are append-only: a new
// document is inserted per computation and never updated in place.
type Summary struct {
	ID         string    `json:"-"` // UUID, internal
	Product    string    `json:"product"`
	Total      int       `json:"total"`
	Positive   int       `json:"positive"`
	Neutral    int       `json:"neutral"`
	Negative   int       `json:"negative"`
	Irrelevant int       `json:"irrelevant"`
	ComputedAt time.Time `json:"-"`
}

// ModelReport is a monitoring snapshot written by the model-drift job.
type ModelReport struct {
	ID            string    `json:"id"` // UUID
	Timestamp     time.Time `json:"timestamp"`
	Accuracy      float64   `json:"accuracy"`
	F1            float64   `json:"f1"`
	DriftDetected bool      `json:"drift_detected"`
	Details       string    `json:"details,omitempty"`
}
