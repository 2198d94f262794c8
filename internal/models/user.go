package models

// User represents the user model in the database
type User struct {
	Base
	Username string `gorm:"not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
}

// TableName overrides the default table name.
func (User) TableName() string { return "app_user" }
