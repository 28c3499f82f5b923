package types

// ServerMetadata is returned by the /metadata endpoint.
type ServerMetadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthStatus is returned by the /health endpoint.
type HealthStatus struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}
