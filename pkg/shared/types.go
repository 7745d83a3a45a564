package shared

import (
	"time"
)

// API response types

// SuccessResponse is returned for a recorded contact.
type SuccessResponse struct {
	Success        bool    `json:"success"`
	PersonID       string  `json:"person_id"`
	OrganizationID *string `json:"organization_id"`
	Message        string  `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Event types
type ContactCreatedEvent struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	PersonID       string    `json:"person_id"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	Organization   string    `json:"organization,omitempty"`
	IssueLinks     int       `json:"issue_links"`
	Timestamp      time.Time `json:"timestamp"`
	Source         string    `json:"source"`
}

// Health check
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// Constants
const (
	ServiceName = "contact-intake"

	// Environments
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Issue link priority levels
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"

	// Event types
	EventTypeContactCreated = "contact.created"
)
