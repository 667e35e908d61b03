package audit

import "time"

// Actions emitted by the portal's workflows.
const (
	ActionPartnerLogin        = "partner_login"
	ActionAdminLogin          = "admin_login"
	ActionLogout              = "logout"
	ActionStepCompleted       = "onboarding_step_completed"
	ActionPartnerVerified     = "partner_verified"
	ActionApplicationReceived = "application_received"
	ActionApplicationApproved = "application_approved"
	ActionApplicationRejected = "application_rejected"
	ActionAccountFinalized    = "account_finalized"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Subject   string    `json:"subject"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}
