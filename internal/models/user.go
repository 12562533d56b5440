// internal/models/user.go
package models

// User is a local shadow of an identity-provider account. Authentication is
// not handled here; the row only carries the role flag and order history.
type User struct {
	BaseModel
	Subject string   `json:"subject" gorm:"uniqueIndex;size:255;not null"`
	Name    string   `json:"name" gorm:"size:255"`
	Email   string   `json:"email" gorm:"size:255;index"`
	Role    UserRole `json:"role" gorm:"type:varchar(20);not null;default:'customer'"`

	// Relationships
	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:UserID;references:Subject"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// UserSummary is the user projection attached to orders.
type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{Name: u.Name, Email: u.Email}
}
