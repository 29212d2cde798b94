package models

// Role is a user's access level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an authenticated back-office operator.
type User struct {
	Base
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string `gorm:"size:255" json:"name,omitempty"`
	Role         Role   `gorm:"size:20;not null;default:'user'" json:"role"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Active       bool   `gorm:"not null" json:"active"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserPatch holds the fields an admin may change.
type UserPatch struct {
	Name   *string `json:"name"`
	Role   *Role   `json:"role"`
	Active *bool   `json:"active"`
}

// Changes returns the columns present in the patch.
func (p UserPatch) Changes() Changes {
	c := Changes{}
	c.setString("name", p.Name)
	if p.Role != nil {
		c["role"] = *p.Role
	}
	if p.Active != nil {
		c["active"] = *p.Active
	}
	return c
}
