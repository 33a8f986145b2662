package domain

// ============================================================
// Dev Tools: endpoints for development/testing
// ============================================================

// DevClockRequest is the body for POST /v1/dev/clock. Setting a simulated
// date lets recurring generation be exercised across due-date boundaries
// without waiting for wall-clock time.
type DevClockRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

// DevClockResponse is returned by the dev clock endpoints.
type DevClockResponse struct {
	Success       bool   `json:"success"`
	SimulatedDate string `json:"simulatedDate,omitempty"`
	Generated     int    `json:"generated"`
	Message       string `json:"message"`
}
