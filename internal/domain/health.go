package domain

// ============================================================
// Health & Ingestion API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// IngestionMetrics is returned by GET /v1/metrics/ingestion.
type IngestionMetrics struct {
	UpstreamRequests int64   `json:"upstreamRequests"`
	UpstreamFailures int64   `json:"upstreamFailures"`
	FailureRate      float64 `json:"failureRate"`
	PagesFetched     int64   `json:"pagesFetched"`
	RecordsFetched   int64   `json:"recordsFetched"`
	Period           string  `json:"period"`
}

// ErrorResponse is the single error shape exposed to API consumers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}
