// approval_log.go defines the immutable audit record written for every
// resource lifecycle transition. Rows are append-only: they are never updated
// or deleted, and they survive deletion of the resource they describe.
package models

import "time"

// ApprovalLog records who moved a resource to which status, when, and why.
type ApprovalLog struct {
	ID         int64          `db:"id" json:"id"`
	AdminID    int64          `db:"admin_id" json:"adminId"`
	ResourceID int64          `db:"resource_id" json:"resourceId"`
	Status     ResourceStatus `db:"status" json:"status"`
	Reason     *string        `db:"reason" json:"reason,omitempty"`
	ActionAt   time.Time      `db:"action_at" json:"actionAt"`
}
