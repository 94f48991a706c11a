// Package services – PollService
//
// This file implements the PollService, which manages the poll lifecycle:
// creation (transactional, with its option set), retrieval under visibility
// rules, updates, the open/closed status toggle, deletion, share short links,
// and the admin moderation listing. It validates and normalizes input,
// consults the authorization guard for every mutating operation, and
// coordinates repository operations.
//
// Service-level errors (e.g. ErrPollNotFound, ErrUnauthorized,
// ErrPollHasVotes) are returned for predictable cases so handlers can map
// them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/authz"
	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/repo"
)

// PollRepo defines the repository contract required by PollService.
// Implementations are responsible for persistence of the poll aggregate.
type PollRepo interface {
	// CreatePollWithOptions inserts a poll and its options atomically.
	CreatePollWithOptions(ctx context.Context, db *gorm.DB, p *domain.Poll, optionTexts []string) (*domain.Poll, error)

	// GetPoll fetches a poll with its ordered options.
	GetPoll(ctx context.Context, db *gorm.DB, id string) (*domain.Poll, error)

	// ListPublicPolls returns a page of publicly listed polls.
	ListPublicPolls(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Poll, error)

	// CountPublicPolls returns the public listing total for pagination.
	CountPublicPolls(ctx context.Context, db *gorm.DB) (int64, error)

	// ListOwnerPolls returns all polls created by ownerID.
	ListOwnerPolls(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Poll, error)

	// SearchPolls runs the admin moderation query.
	SearchPolls(ctx context.Context, db *gorm.DB, s repo.PollSearch) ([]domain.Poll, int64, error)

	// UpdatePollFields applies a partial update to the poll row.
	UpdatePollFields(ctx context.Context, db *gorm.DB, id string, u repo.PollUpdate) error

	// ReplaceOptions swaps the full option set of a poll.
	ReplaceOptions(ctx context.Context, db *gorm.DB, pollID string, optionTexts []string) error

	// SetStatusCAS flips the status with compare-and-set semantics.
	SetStatusCAS(ctx context.Context, db *gorm.DB, id, from, to string) (bool, error)

	// DeletePoll removes the poll row (cascades to options/votes/links).
	DeletePoll(ctx context.Context, db *gorm.DB, id string) error

	// CountVotes returns the poll's total vote count.
	CountVotes(ctx context.Context, db *gorm.DB, pollID string) (int64, error)

	// EnsureProfile lazily provisions the owner's profile.
	EnsureProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error)

	// EnsureShortLink lazily provisions the poll's share record.
	EnsureShortLink(ctx context.Context, db *gorm.DB, pollID string) (*domain.PollShortLink, error)

	// GetShortLinkByCode resolves a share code to its record.
	GetShortLinkByCode(ctx context.Context, db *gorm.DB, code string) (*domain.PollShortLink, error)
}

// PollService provides poll lifecycle operations. It enforces input rules,
// ownership constraints, and the visibility policy.
type PollService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the poll repository used by this service.
	Repo PollRepo

	// QuestionMaxLen caps stored questions by rune length.
	QuestionMaxLen int
	// OptionMaxLen caps stored option texts by rune length.
	OptionMaxLen int
}

// NewPollService constructs a PollService with sane defaults for text limits.
func NewPollService(db *gorm.DB, r PollRepo) *PollService {
	return &PollService{
		DB:             db,
		Repo:           r,
		QuestionMaxLen: 500,
		OptionMaxLen:   255,
	}
}

// CreatePollInput carries the creation parameters. Zero values fall back to
// the poll defaults (public, results public, multi-vote, anonymous allowed).
type CreatePollInput struct {
	Question          string
	Description       string
	Options           []string
	RequireAuth       bool
	SingleVote        bool
	Visibility        string
	ResultsVisibility string
	ExpiresAt         *time.Time
}

// Create validates the input, lazily provisions the owner's profile, and
// inserts the poll together with its options in one transaction. Creation
// always opens the poll directly; draft is reserved for explicit future
// publish flows.
//
// A nil principal yields ErrAuthRequired. Invalid input yields a
// *ValidationError listing every violated field, not just the first.
func (s *PollService) Create(ctx context.Context, principal *authz.Principal, in CreatePollInput) (*domain.Poll, error) {
	if principal == nil {
		return nil, ErrAuthRequired
	}

	ve := &ValidationError{}

	question := normalizeText(in.Question)
	if question == "" {
		ve.add("question", "question is required")
	} else if s.QuestionMaxLen > 0 && utf8.RuneCountInString(question) > s.QuestionMaxLen {
		ve.add("question", "question is too long")
	}

	options := make([]string, 0, len(in.Options))
	for _, o := range in.Options {
		if t := normalizeText(o); t != "" {
			options = append(options, s.clipOption(t))
		}
	}
	if len(options) < 2 {
		ve.add("options", "at least two options are required")
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	switch visibility {
	case domain.VisibilityPublic, domain.VisibilityUnlisted, domain.VisibilityPrivate:
	default:
		ve.add("visibility", "must be public, unlisted, or private")
	}

	resultsVisibility := in.ResultsVisibility
	if resultsVisibility == "" {
		resultsVisibility = domain.ResultsPublic
	}
	switch resultsVisibility {
	case domain.ResultsPublic, domain.ResultsAfterClose, domain.ResultsOwnerOnly:
	default:
		ve.add("results_visibility", "must be public, after_close, or owner_only")
	}

	if in.ExpiresAt != nil && in.ExpiresAt.Before(time.Now().UTC()) {
		ve.add("expires_at", "must be in the future")
	}

	if len(ve.Fields) > 0 {
		return nil, ve
	}

	if _, err := s.Repo.EnsureProfile(ctx, s.DB, principal.ID); err != nil {
		return nil, err
	}

	p := &domain.Poll{
		Question:          question,
		CreatedBy:         principal.ID,
		RequireAuth:       in.RequireAuth,
		SingleVote:        in.SingleVote,
		Status:            domain.PollStatusOpen,
		Visibility:        visibility,
		ResultsVisibility: resultsVisibility,
		ExpiresAt:         in.ExpiresAt,
	}
	if d := normalizeText(in.Description); d != "" {
		p.Description = &d
	}

	return s.Repo.CreatePollWithOptions(ctx, s.DB, p, options)
}

// Get returns the poll with its options, applying the visibility policy:
// private polls are reported as not found to anyone but their owner and
// admins, so their existence does not leak.
func (s *PollService) Get(ctx context.Context, principal *authz.Principal, id string) (*domain.Poll, error) {
	p, err := s.Repo.GetPoll(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	if !authz.CanViewPoll(principal, p) {
		return nil, ErrPollNotFound
	}
	return p, nil
}

// ListPublic returns a page of publicly listed polls and the total count.
// It applies defaults for invalid page/pageSize.
func (s *PollService) ListPublic(ctx context.Context, page, pageSize int) ([]domain.Poll, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountPublicPolls(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Poll{}, 0, nil
	}

	items, err := s.Repo.ListPublicPolls(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// ListOwned returns every poll the principal created, newest first.
func (s *PollService) ListOwned(ctx context.Context, principal *authz.Principal) ([]domain.Poll, error) {
	if principal == nil {
		return nil, ErrAuthRequired
	}
	return s.Repo.ListOwnerPolls(ctx, s.DB, principal.ID)
}

// UpdatePollInput carries the updatable fields. Nil pointers leave a field
// unchanged; a non-nil Options slice requests a full option replacement.
type UpdatePollInput struct {
	Question          *string
	Description       *string
	RequireAuth       *bool
	SingleVote        *bool
	Visibility        *string
	ResultsVisibility *string
	ExpiresAt         *time.Time
	Options           []string
}

// Update applies a partial update to a poll the principal may modify.
//
// Replacing the option set is refused with ErrPollHasVotes once any vote
// exists: the replacement would cascade-delete the votes referencing the old
// options. With zero votes the replacement runs transactionally together with
// the field update.
func (s *PollService) Update(ctx context.Context, principal *authz.Principal, id string, in UpdatePollInput) (*domain.Poll, error) {
	p, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModify(principal, p) {
		return nil, ErrUnauthorized
	}

	ve := &ValidationError{}
	u := repo.PollUpdate{
		Description: in.Description,
		RequireAuth: in.RequireAuth,
		SingleVote:  in.SingleVote,
		ExpiresAt:   in.ExpiresAt,
	}

	if in.Question != nil {
		q := normalizeText(*in.Question)
		if q == "" {
			ve.add("question", "question is required")
		} else if s.QuestionMaxLen > 0 && utf8.RuneCountInString(q) > s.QuestionMaxLen {
			ve.add("question", "question is too long")
		} else {
			u.Question = &q
		}
	}
	if in.Visibility != nil {
		switch *in.Visibility {
		case domain.VisibilityPublic, domain.VisibilityUnlisted, domain.VisibilityPrivate:
			u.Visibility = in.Visibility
		default:
			ve.add("visibility", "must be public, unlisted, or private")
		}
	}
	if in.ResultsVisibility != nil {
		switch *in.ResultsVisibility {
		case domain.ResultsPublic, domain.ResultsAfterClose, domain.ResultsOwnerOnly:
			u.ResultsVisibility = in.ResultsVisibility
		default:
			ve.add("results_visibility", "must be public, after_close, or owner_only")
		}
	}

	var options []string
	if in.Options != nil {
		for _, o := range in.Options {
			if t := normalizeText(o); t != "" {
				options = append(options, s.clipOption(t))
			}
		}
		if len(options) < 2 {
			ve.add("options", "at least two options are required")
		}
	}

	if len(ve.Fields) > 0 {
		return nil, ve
	}

	// Cheap pre-check outside the transaction for the common case; the
	// authoritative count runs inside it, so a vote committing in between
	// still blocks the replacement instead of being cascade-deleted.
	if in.Options != nil {
		n, err := s.Repo.CountVotes(ctx, s.DB, id)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrPollHasVotes
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Options != nil {
			n, err := s.Repo.CountVotes(ctx, tx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return ErrPollHasVotes
			}
		}
		if err := s.Repo.UpdatePollFields(ctx, tx, id, u); err != nil {
			return err
		}
		if in.Options != nil {
			return s.Repo.ReplaceOptions(ctx, tx, id, options)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}

	return s.Repo.GetPoll(ctx, s.DB, id)
}

// ToggleStatus flips a poll between open and closed with compare-and-set
// semantics. A toggle that loses the race against a concurrent toggle returns
// ErrStatusConflict rather than applying last-writer-wins. Draft polls cannot
// be toggled.
func (s *PollService) ToggleStatus(ctx context.Context, principal *authz.Principal, id string) (*domain.Poll, error) {
	p, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModify(principal, p) {
		return nil, ErrUnauthorized
	}

	var to string
	switch p.Status {
	case domain.PollStatusOpen:
		to = domain.PollStatusClosed
	case domain.PollStatusClosed:
		to = domain.PollStatusOpen
	default:
		return nil, ErrInvalidTransition
	}

	ok, err := s.Repo.SetStatusCAS(ctx, s.DB, id, p.Status, to)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	if !ok {
		return nil, ErrStatusConflict
	}

	p.Status = to
	return p, nil
}

// Delete removes a poll the principal may modify. Options, votes, and share
// links are removed by the schema's cascading foreign keys.
func (s *PollService) Delete(ctx context.Context, principal *authz.Principal, id string) error {
	p, err := s.Get(ctx, principal, id)
	if err != nil {
		return err
	}
	if !authz.CanModify(principal, p) {
		return ErrUnauthorized
	}
	if err := s.Repo.DeletePoll(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPollNotFound
		}
		return err
	}
	return nil
}

// ShortLink returns the poll's share record, creating it on first use.
// Anyone who may view the poll may share it.
func (s *PollService) ShortLink(ctx context.Context, principal *authz.Principal, id string) (*domain.PollShortLink, error) {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return nil, err
	}
	return s.Repo.EnsureShortLink(ctx, s.DB, id)
}

// ResolveShortCode resolves a share code to the poll it points at, under the
// same visibility policy as a direct fetch.
func (s *PollService) ResolveShortCode(ctx context.Context, principal *authz.Principal, code string) (*domain.Poll, error) {
	link, err := s.Repo.GetShortLinkByCode(ctx, s.DB, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	return s.Get(ctx, principal, link.PollID)
}

// AdminSearch runs the moderation listing for admins only.
func (s *PollService) AdminSearch(ctx context.Context, principal *authz.Principal, search repo.PollSearch) ([]domain.Poll, int64, error) {
	if !principal.IsAdmin() {
		return nil, 0, ErrUnauthorized
	}
	return s.Repo.SearchPolls(ctx, s.DB, search)
}

// clipOption truncates an option text to the configured maximum rune length.
func (s *PollService) clipOption(text string) string {
	if s.OptionMaxLen > 0 && utf8.RuneCountInString(text) > s.OptionMaxLen {
		return string([]rune(text)[:s.OptionMaxLen])
	}
	return text
}

// normalizeText trims whitespace, collapses runs of it to single spaces, and
// applies Unicode NFC so visually identical questions and options compare
// equal.
func normalizeText(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	return norm.NFC.String(s)
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
