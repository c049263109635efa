package models

// --- Request Structs ---

// AskRequest defines the expected body for the ask endpoint.
type AskRequest struct {
	Text string `json:"text"`
}

// --- Response Structs ---

// AskResponse defines the response body for a successful prompt submission.
type AskResponse struct {
	Answer string `json:"answer"`
}

// HistoryItem is a single entry of the history listing.
// CreatedAt is deliberately not exposed.
type HistoryItem struct {
	ID       int64  `json:"id"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// DiagnosticsResponse reports provider configuration without calling the provider.
type DiagnosticsResponse struct {
	CredentialLoaded bool    `json:"credentialLoaded"`
	MaskedCredential *string `json:"maskedCredential"` // null when no credential is configured
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	Status           string  `json:"status"` // "ok" or "error"
	Error            string  `json:"error,omitempty"`
}

const (
	DiagnosticsStatusOK    = "ok"
	DiagnosticsStatusError = "error"
)

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// RootResponse is the informational payload served at "/".
type RootResponse struct {
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error      string `json:"error"`
	IncidentID string `json:"incident_id,omitempty"` // Set on 500s, matches the server log line
}
