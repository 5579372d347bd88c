// resource.go defines the Resource model and its lifecycle status. A resource
// starts PENDING and moves exactly once to APPROVED or REJECTED; both are
// terminal, resubmission means uploading a new resource.
package models

import "time"

// ResourceStatus is the lifecycle state of a resource.
type ResourceStatus string

const (
	ResourceStatusPending  ResourceStatus = "PENDING"
	ResourceStatusApproved ResourceStatus = "APPROVED"
	ResourceStatusRejected ResourceStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceStatusPending, ResourceStatusApproved, ResourceStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s ResourceStatus) Terminal() bool {
	return s == ResourceStatusApproved || s == ResourceStatusRejected
}

// Resource represents an uploaded file or link pending administrator review.
// FileURL is an opaque reference; this service never touches file contents.
type Resource struct {
	ID          int64          `db:"id" json:"id"`
	UploaderID  int64          `db:"uploader_id" json:"uploaderId"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	FileURL     string         `db:"file_url" json:"fileUrl"`
	Status      ResourceStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	ApprovedAt  *time.Time     `db:"approved_at" json:"approvedAt,omitempty"`
}
