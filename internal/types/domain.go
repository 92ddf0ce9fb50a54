// Package types defines the shared domain types for the IPPON batch-report
// pipeline: recurring report settings, their execution projections, and the
// collaborator payloads (inquiries, properties, reports). All timestamps are
// stored as absolute instants; the operational timezone (Asia/Tokyo) is
// applied by the batch package when calendar arithmetic is needed.
package types

import "time"

// Cadence is the recurrence interval of a report setting. Only the two
// literal values below are valid; they are enforced at the configuration
// creation boundary and treated as an invariant everywhere else.
type Cadence string

const (
	CadenceWeekly   Cadence = "every 1 week"
	CadenceBiweekly Cadence = "every 2 weeks"
)

// Days returns the number of calendar days the cadence spans. Unknown values
// indicate corrupted configuration data and fail loud rather than silently
// producing a wrong reporting period.
func (c Cadence) Days() int {
	switch c {
	case CadenceWeekly:
		return 7
	case CadenceBiweekly:
		return 14
	default:
		panic("types: invalid cadence value: " + string(c))
	}
}

// Valid reports whether the cadence is one of the two supported values.
func (c Cadence) Valid() bool {
	return c == CadenceWeekly || c == CadenceBiweekly
}

// SettingStatus is the lifecycle state of a report setting. Soft deletion is
// orthogonal: deleting a setting sets DeletedAt without touching Status.
type SettingStatus string

const (
	SettingActive    SettingStatus = "active"
	SettingPaused    SettingStatus = "paused"
	SettingCompleted SettingStatus = "completed"
)

// DefaultExecutionTime is the time of day ("HH:mm") applied when a setting is
// created without an explicit execution time.
const DefaultExecutionTime = "01:00"

// BatchReportSetting is one recurring-report configuration per
// (client, property). The record is identified by (ClientID, CreatedAt);
// CreatedAt is immutable after creation and is the key used for all point
// lookups, updates, and deletes.
//
// Field ownership is split: the batch orchestrator exclusively owns the
// scheduling state (NextExecutionDate, LastExecutionDate, ExecutionCount);
// everything else is owned by the settings service.
type BatchReportSetting struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`

	PropertyID    string  `json:"property_id"`
	PropertyName  string  `json:"property_name"` // denormalized cache, may be stale
	Weekday       int     `json:"weekday"`       // 0=Sunday .. 6=Saturday
	StartDate     string  `json:"start_date"`    // YYYY-MM-DD, first scheduled date
	Cadence       Cadence `json:"auto_create_period"`
	AutoGenerate  bool    `json:"auto_generate"`
	ExecutionTime string  `json:"execution_time"` // HH:mm, defaults to 01:00

	NextExecutionDate time.Time     `json:"next_execution_date"`
	Status            SettingStatus `json:"status"`
	LastExecutionDate *time.Time    `json:"last_execution_date,omitempty"`
	ExecutionCount    int           `json:"execution_count"`

	EmployeeID string     `json:"employee_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// ExecutionTarget is the read-only projection of a BatchReportSetting used by
// the batch orchestrator during due-selection and processing. The store only
// ever yields targets for active, non-deleted settings, so the projection
// carries no status or audit fields.
type ExecutionTarget struct {
	ID                string
	ClientID          string
	CreatedAt         time.Time
	PropertyID        string
	PropertyName      string
	Weekday           int
	Cadence           Cadence
	AutoGenerate      bool
	NextExecutionDate time.Time
}

// Inquiry is one customer interaction record for a property. The batch
// pipeline only reads these; creation happens in the inquiry API, which is
// outside this repository.
type Inquiry struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	PropertyID   string    `json:"property_id"`
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Category     string    `json:"category"` // e.g. "viewing", "phone", "email"
	Title        string    `json:"title"`
	InquiredAt   time.Time `json:"inquired_at"`
}

// Property is the master record the assembler resolves the denormalized
// property name against. Absence of the property is an expected data-drift
// condition, not an error.
type Property struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"client_id"`
	Name      string     `json:"name"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Report is a persisted sales-status report. Summary is AI-generated when a
// summarization backend is configured, and a plain fallback line otherwise.
type Report struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	PropertyID   string    `json:"property_id"`
	Title        string    `json:"title"`
	PeriodStart  string    `json:"period_start"` // YYYY-MM-DD
	PeriodEnd    string    `json:"period_end"`   // YYYY-MM-DD
	Summary      string    `json:"summary"`
	InquiryCount int       `json:"inquiry_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// InquirySummary is the per-interaction line item consolidated into a report
// creation request.
type InquirySummary struct {
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	InquiredAt   time.Time `json:"inquired_at"`
	Category     string    `json:"category"`
	Title        string    `json:"title"`
}

// ReportCreateRequest is the payload the batch assembler hands to the report
// creation service.
type ReportCreateRequest struct {
	ClientID     string           `json:"client_id"`
	PropertyID   string           `json:"property_id"`
	PropertyName string           `json:"property_name"`
	PeriodStart  string           `json:"period_start"` // YYYY-MM-DD
	PeriodEnd    string           `json:"period_end"`   // YYYY-MM-DD
	Inquiries    []InquirySummary `json:"inquiries"`
}
