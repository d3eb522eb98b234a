// Package handler provides HTTP request handlers for the todo API.
package handler

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
