package domain

import "time"

// Configuration holds the diploma field-mapping document consumed by the
// worker when placing text and signatures on the template. The mappings are
// stored as an opaque JSON object; layout semantics live in the worker.
type Configuration struct {
	ID            int
	FieldMappings map[string]any
	UpdatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// User is the admin-panel identity attached to created resources.
type User struct {
	ID              string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
	Role            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
