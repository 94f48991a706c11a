// Package domain defines the persistence models for users, profiles, polls,
// options, and votes. These types are mapped with GORM and form the core data
// layer of the polling application.
package domain

import (
	"time"
)

// Poll status values. A draft poll is a valid state but is never produced by
// the creation path, which always opens polls directly.
const (
	PollStatusOpen   = "open"
	PollStatusClosed = "closed"
	PollStatusDraft  = "draft"
)

// Poll visibility values. Visibility controls discoverability in listings,
// not who may vote.
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

// Results visibility values. Controls who may view aggregated counts,
// independently of who may vote.
const (
	ResultsPublic     = "public"
	ResultsAfterClose = "after_close"
	ResultsOwnerOnly  = "owner_only"
)

// Profile roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the credential record behind an authenticated identity.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: login identifier, unique.
//   - PasswordHash: bcrypt hash; never serialized.
//   - CreatedAt: timestamp managed by GORM.
type User struct {
	ID           string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Profile is the public face of a user and the trusted source of its role.
// A profile is created lazily the first time its owning user performs an
// action that requires one (e.g., creating a poll).
//
// Fields:
//   - ID: equals the owning user's ID (char(36)).
//   - Username: optional display name.
//   - Role: "user" or "admin" (enforced by DB constraint). Admin privileges
//     are always derived from this column, never from client claims.
//   - AvatarURL: optional avatar location.
type Profile struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Username  *string   `json:"username"   gorm:"type:varchar(64)"`
	Role      string    `json:"role"       gorm:"type:varchar(16);not null;default:'user';check:role IN ('user','admin')"`
	AvatarURL *string   `json:"avatar_url" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Poll represents a question with a fixed option set open for voting.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Question: non-empty poll question.
//   - Description: optional free text.
//   - CreatedBy: owner profile ID, immutable after creation; indexed.
//   - RequireAuth: voters must be authenticated.
//   - SingleVote: at most one vote per identified voter (or per browser
//     for anonymous voters).
//   - Status: open, closed, or draft. Draft and closed polls reject votes.
//   - Visibility: public, unlisted, or private (discoverability only).
//   - ResultsVisibility: public, after_close, or owner_only.
//   - ExpiresAt: optional voting cutoff; a past expiry is treated as closed.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Poll struct {
	ID                string     `json:"id"                 gorm:"type:char(36);primaryKey"`
	Question          string     `json:"question"           gorm:"type:varchar(500);not null"`
	Description       *string    `json:"description,omitempty" gorm:"type:text"`
	CreatedBy         string     `json:"created_by"         gorm:"type:char(36);not null;index:idx_owner_polls"`
	RequireAuth       bool       `json:"require_auth"       gorm:"not null;default:false"`
	SingleVote        bool       `json:"single_vote"        gorm:"not null;default:false"`
	Status            string     `json:"status"             gorm:"type:varchar(16);not null;default:'open';check:status IN ('open','closed','draft')"`
	Visibility        string     `json:"visibility"         gorm:"type:varchar(16);not null;default:'public';check:visibility IN ('public','unlisted','private')"`
	ResultsVisibility string     `json:"results_visibility" gorm:"type:varchar(16);not null;default:'public';check:results_visibility IN ('public','after_close','owner_only')"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Options is the ordered option set. A poll always has at least two.
	// The cascade lives on this side: GORM derives the poll_options FK from
	// the has-many association, not from PollOption.Poll.
	Options []PollOption `json:"options,omitempty" gorm:"foreignKey:PollID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Poll.
func (Poll) TableName() string { return "polls" }

// Open reports whether the poll currently accepts votes: status must be
// "open" and a configured expiry must not have passed.
func (p *Poll) Open(now time.Time) bool {
	if p.Status != PollStatusOpen {
		return false
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return false
	}
	return true
}

// PollOption is a single choice within a poll. Options are cascade-deleted
// with their poll, and (poll_id, order_index) is unique so display order is
// stable.
type PollOption struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	PollID     string    `json:"poll_id"     gorm:"type:char(36);not null;index;uniqueIndex:ux_options_poll_order,priority:1"`
	Text       string    `json:"text"        gorm:"type:varchar(255);not null"`
	OrderIndex int       `json:"order_index" gorm:"not null;uniqueIndex:ux_options_poll_order,priority:2"`
	CreatedAt  time.Time `json:"created_at"`

	// Poll is the owning poll. Options are cascade-deleted with it.
	Poll Poll `json:"-" gorm:"foreignKey:PollID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for PollOption.
func (PollOption) TableName() string { return "poll_options" }

// Vote is one cast ballot. Votes are append-only: once created they are never
// updated or retracted, which keeps aggregation commutative and sidesteps
// write-write conflicts.
//
// VoterKey carries the single-vote guarantee. It is set to the voter's user ID
// only when the poll enforces single_vote and the voter is authenticated; a
// partial unique index on (poll_id, voter_key) then closes the
// duplicate-insert race at the storage layer. Application-level pre-checks are
// a latency optimization, not the correctness mechanism. See repo.AutoMigrate
// for the index DDL (GORM tags cannot express the partial predicate).
type Vote struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	PollID    string    `json:"poll_id"    gorm:"type:char(36);not null;index:idx_poll_votes"`
	OptionID  string    `json:"option_id"  gorm:"type:char(36);not null;index"`
	UserID    *string   `json:"user_id,omitempty" gorm:"type:char(36)"`
	VoterKey  *string   `json:"-"          gorm:"type:char(36)"`
	IPAddress *string   `json:"-"          gorm:"type:varchar(64)"`
	UserAgent *string   `json:"-"          gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`

	// Poll and Option are the referenced rows; both cascade-delete votes.
	Poll   Poll       `json:"-" gorm:"foreignKey:PollID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Option PollOption `json:"-" gorm:"foreignKey:OptionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string { return "votes" }
