package types

// CreateSettingRequest is the validated input for creating a recurring-report
// setting. EmployeeID and ClientID come from the authenticated tenant context
// extracted by the API layer, not from the request body.
type CreateSettingRequest struct {
	PropertyID    string  `json:"property_id" validate:"required"`
	PropertyName  string  `json:"property_name" validate:"required"`
	Weekday       int     `json:"weekday" validate:"min=0,max=6"`
	StartDate     string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	Cadence       Cadence `json:"auto_create_period" validate:"required"`
	AutoGenerate  bool    `json:"auto_generate"`
	ExecutionTime string  `json:"execution_time" validate:"omitempty,len=5"` // HH:mm
}

// SettingPatch is a typed partial update for the configuration-owned fields
// of a BatchReportSetting. Nil fields are left untouched. Scheduling state
// (next/last execution, count) is owned by the orchestrator and is
// deliberately not patchable here.
type SettingPatch struct {
	PropertyName  *string        `json:"property_name,omitempty"`
	Weekday       *int           `json:"weekday,omitempty" validate:"omitempty,min=0,max=6"`
	Cadence       *Cadence       `json:"auto_create_period,omitempty"`
	AutoGenerate  *bool          `json:"auto_generate,omitempty"`
	ExecutionTime *string        `json:"execution_time,omitempty" validate:"omitempty,len=5"`
	Status        *SettingStatus `json:"status,omitempty"`
}

// IsEmpty reports whether the patch carries no changes.
func (p SettingPatch) IsEmpty() bool {
	return p.PropertyName == nil &&
		p.Weekday == nil &&
		p.Cadence == nil &&
		p.AutoGenerate == nil &&
		p.ExecutionTime == nil &&
		p.Status == nil
}
