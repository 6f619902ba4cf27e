package model

import "time"

// Role represents an application authorization level derived from the profile
// document. Kept in string form for easy persistence.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// Profile is the application-owned record about a user, stored in the "users"
// collection independently of the identity provider. The document id is the
// identity id, not a generated one, so there is exactly one profile per identity.
type Profile struct {
	ID          string    `bson:"_id"`
	Email       string    `bson:"email"`
	DisplayName *string   `bson:"display_name"`
	PhotoURL    *string   `bson:"photo_url"`
	Role        Role      `bson:"role"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}
