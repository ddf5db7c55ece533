package services

// UnitOptions is the list of suggested units of measure. Unit values are free
// text; the UI offers these but membership is not enforced.
var UnitOptions = []string{
	"LS",
	"EA",
	"SF",
	"SY",
	"LF",
	"CY",
	"DAY",
	"HR",
}

// Estimate lifecycle statuses.
const (
	StatusDraft    = "Draft"
	StatusSent     = "Sent"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// StatusOptions is the list of estimate status values.
var StatusOptions = []string{
	StatusDraft,
	StatusSent,
	StatusApproved,
	StatusRejected,
}
