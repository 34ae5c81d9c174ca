package domain

import "time"

type StorageKind string

const (
	StorageFile StorageKind = "file"
	StorageLink StorageKind = "link"
)

// Document is owned by the intranet file subsystem; this service only reads it.
type Document struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	StorageKind StorageKind `json:"storage_kind"`
	StoragePath string      `json:"storage_path,omitempty"`
	ExternalURL string      `json:"external_url,omitempty"`
	MimeType    string      `json:"mime_type,omitempty"`
	Extension   string      `json:"extension,omitempty"`
	OwnerID     string      `json:"owner_id"`
	Departments []string    `json:"departments,omitempty"`
	SharedWith  []string    `json:"shared_with,omitempty"`
	IsPublic    bool        `json:"is_public"`
	AIEnabled   bool        `json:"ai_enabled"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// User identifies the requester for the catalog permission filter.
// Authentication itself happens upstream in the intranet gateway.
type User struct {
	ID          string
	Departments []string
}
