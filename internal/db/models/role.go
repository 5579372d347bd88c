// role.go defines capability roles and their assignment to users. A user may
// hold several roles; the effective role for a session is the
// highest-privilege one present.
package models

import "time"

// Role names. Privilege ordering: ADMIN > USER.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Role describes a capability class assignable to users.
type Role struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// RoleAssignment is the (user, role) junction row. The pair is unique, so the
// same role cannot be assigned to the same user twice.
type RoleAssignment struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	RoleID    int64     `db:"role_id" json:"roleId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// rolePrivilege orders known role names; unknown names rank lowest so a
// corrupt assignment can never grant elevated access.
func rolePrivilege(name string) int {
	switch name {
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// EffectiveRole picks the highest-privilege role from a user's assignments,
// defaulting to USER when none are assigned.
func EffectiveRole(names []string) string {
	effective := RoleUser
	for _, n := range names {
		if rolePrivilege(n) > rolePrivilege(effective) {
			effective = n
		}
	}
	return effective
}
