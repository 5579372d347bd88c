// rating.go defines per-user resource ratings. The (resource, user) pair is
// unique: a user rates a given resource at most once.
package models

import "time"

// Rating bounds. Values outside this range are rejected before insert.
const (
	RatingMin = 1
	RatingMax = 5
)

// Rating is a single user's score for a resource.
type Rating struct {
	ID          int64     `db:"id" json:"id"`
	ResourceID  int64     `db:"resource_id" json:"resourceId"`
	UserID      int64     `db:"user_id" json:"userId"`
	RatingValue int       `db:"rating_value" json:"ratingValue"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
