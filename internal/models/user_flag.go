package models

import "time"

// UserFlag tracks moderation outcomes for a user. It is stored in SQL by
// default and in Mongo when a Mongo URI is configured.
type UserFlag struct {
	UserID       string    `json:"user_id" bson:"user_id" gorm:"primaryKey;size:36"`
	Strikes      int       `json:"strikes" bson:"strikes" gorm:"not null"`
	LastReason   string    `json:"last_reason,omitempty" bson:"last_reason,omitempty" gorm:"type:text"`
	LastStrikeAt time.Time `json:"last_strike_at" bson:"last_strike_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
