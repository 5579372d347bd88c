// Package models defines the persistent entities of the resource sharing
// platform. Entities reference each other by integer ID only; relations are
// resolved through explicit repository queries, never embedded object graphs.
package models

import "time"

// User represents a platform account. Email and username are unique and
// immutable after registration; profile updates touch only FullName and
// ProfileImageLink.
type User struct {
	ID               int64     `db:"id" json:"id"`
	FullName         string    `db:"full_name" json:"fullName"`
	Email            string    `db:"email" json:"email"`
	Username         string    `db:"username" json:"username"`
	ProfileImageLink *string   `db:"profile_image_link" json:"profileImageLink,omitempty"`
	Pwhash           string    `db:"pwhash" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// Profile is the client-facing shape of a user, as returned by login.
type Profile struct {
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	FullName         string  `json:"fullName"`
	ProfileImageLink *string `json:"profileImageLink"`
}

// Profile projects the user into its client-facing shape.
func (u *User) Profile() Profile {
	return Profile{
		Username:         u.Username,
		Email:            u.Email,
		FullName:         u.FullName,
		ProfileImageLink: u.ProfileImageLink,
	}
}
