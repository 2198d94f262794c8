package models

// Tag is a free-form label a user attaches to transactions.
type Tag struct {
	Base
	UserID uint   `gorm:"not null;uniqueIndex:idx_tag_user_name" json:"user_id"`
	Name   string `gorm:"not null;uniqueIndex:idx_tag_user_name" json:"name"`
}

// TableName overrides the default table name.
func (Tag) TableName() string { return "tag" }
