package store

import (
	"time"

	"github.com/shopspring/decimal"
)

type Project struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Client      string           `json:"client,omitempty"`
	Color       string           `json:"color"`
	Category    string           `json:"category"`
	Billable    bool             `json:"billable"`
	BillingRate *decimal.Decimal `json:"billing_rate,omitempty"`
	Archived    bool             `json:"archived"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ProjectInput holds the writable project fields.
type ProjectInput struct {
	Name        string
	Client      string
	Color       string
	Category    string
	Billable    bool
	BillingRate *decimal.Decimal
}

type Task struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Name      string    `json:"name"`
	Tags      string    `json:"tags,omitempty"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WeekTotal is the hours logged in one Monday-based week.
type WeekTotal struct {
	WeekStart string          `json:"week_start"`
	Hours     decimal.Decimal `json:"hours"`
	Entries   int             `json:"entries"`
}
