// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// PollShortLink is the share artifact for a poll: a short, unique code that
// resolves back to the poll. Short links are derived state and are
// cascade-deleted with their poll.
type PollShortLink struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	PollID    string    `json:"poll_id"    gorm:"type:char(36);not null;uniqueIndex:ux_shortlinks_poll"`
	ShortCode string    `json:"short_code" gorm:"type:varchar(16);not null;uniqueIndex:ux_shortlinks_code"`
	CreatedAt time.Time `json:"created_at"`

	Poll Poll `json:"-" gorm:"foreignKey:PollID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName implements the GORM tabler interface.
func (PollShortLink) TableName() string { return "poll_short_links" }
