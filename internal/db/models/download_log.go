// download_log.go defines the append-only record of resource downloads,
// consulted when enforcing subscription download quotas.
package models

import "time"

// DownloadLog records one consumption event.
type DownloadLog struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"userId"`
	ResourceID   int64     `db:"resource_id" json:"resourceId"`
	DownloadedAt time.Time `db:"downloaded_at" json:"downloadedAt"`
}
