package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/waap-dev/waap/internal/config"
	"github.com/waap-dev/waap/internal/domain"
	"github.com/waap-dev/waap/internal/errors"
	"github.com/waap-dev/waap/internal/logger"
	"github.com/waap-dev/waap/internal/render"
)

type PostingStorage interface {
	SavePosting(posting domain.JobPosting) (domain.PostingId, error)
	Posting(id domain.PostingId) (domain.JobPosting, error)
	PostingsByOwner(owner domain.Email) ([]domain.JobPosting, error)
	PublicPostings(filter domain.ListingFilter, now time.Time) ([]domain.JobPosting, error)
	// SetModerationStatus applies the transition only if the row still holds
	// `from`; returns false when a concurrent moderation won the race.
	SetModerationStatus(id domain.PostingId, from, to domain.ModerationStatus, moderator domain.Email, notes string) (bool, error)
	// AnonymizePosting flips anonymized=false -> true and redacts contact
	// email, criteria and description in the same statement. Returns false
	// if the posting was already anonymized.
	AnonymizePosting(id domain.PostingId) (bool, error)
	DeletePosting(id domain.PostingId) error

	DepartmentExists(id domain.DepartmentId) (bool, error)
	ClassificationExists(id domain.ClassificationId) (bool, error)
}

// NewPosting carries the owner-supplied fields for posting creation.
type NewPosting struct {
	Title            string
	DepartmentId     domain.DepartmentId
	Location         string
	ClassificationId domain.ClassificationId
	Level            int
	AlternationType  domain.ClassificationType
	LanguageProfile  domain.LanguageProfile
	Criteria         domain.Criteria
	Description      string
	ContactEmail     *domain.Email
	ExpirationDate   *time.Time
}

// Postings owns the posting lifecycle: creation, moderation, public
// visibility, owner-confirmed deletion and anonymization.
type Postings struct {
	storage PostingStorage
	tokens  *Tokens
	email   Email
	cfg     *config.Public
	links   LinkBuilder
}

func NewPostings(storage PostingStorage, tokens *Tokens, email Email, cfg *config.Public, links LinkBuilder) *Postings {
	return &Postings{
		storage: storage,
		tokens:  tokens,
		email:   email,
		cfg:     cfg,
		links:   links,
	}
}

var validAlternationTypes = map[domain.ClassificationType]bool{
	domain.ClassificationPermanent: true,
	domain.ClassificationTemporary: true,
	domain.ClassificationContract:  true,
	domain.ClassificationCasual:    true,
}

var validLanguageProfiles = map[domain.LanguageProfile]bool{
	domain.LanguageEnglish:          true,
	domain.LanguageFrench:           true,
	domain.LanguageBilingual:        true,
	domain.LanguageEnglishPreferred: true,
	domain.LanguageFrenchPreferred:  true,
}

// Create persists a posting for an authenticated owner. Expiration defaults
// to posting date plus the configured lifetime; the initial moderation
// status follows the auto-approve policy switch.
func (p *Postings) Create(owner domain.Email, fields NewPosting) (domain.JobPosting, error) {
	if err := p.validateFields(fields); err != nil {
		return domain.JobPosting{}, err
	}

	now := time.Now().UTC()
	expiration := now.AddDate(0, 0, p.cfg.PostingLifetimeDays)
	if fields.ExpirationDate != nil {
		expiration = fields.ExpirationDate.UTC()
	}
	if expiration.Before(now) {
		return domain.JobPosting{}, &errors.ValidationError{Field: "expiration_date", Reason: "must not precede the posting date"}
	}

	status := domain.ModerationPending
	if p.cfg.AutoApprovePostings {
		status = domain.ModerationApproved
	}

	criteria := make(domain.Criteria, len(fields.Criteria))
	for key, values := range fields.Criteria {
		cleaned := make([]string, len(values))
		for i, v := range values {
			cleaned[i] = render.PlainText(v)
		}
		criteria[render.PlainText(key)] = cleaned
	}

	posting := domain.JobPosting{
		OwnerEmail:       NormalizeEmail(owner),
		Title:            render.PlainText(fields.Title),
		DepartmentId:     fields.DepartmentId,
		Location:         fields.Location,
		ClassificationId: fields.ClassificationId,
		Level:            fields.Level,
		AlternationType:  fields.AlternationType,
		LanguageProfile:  fields.LanguageProfile,
		Criteria:         criteria,
		Description:      fields.Description,
		ContactEmail:     fields.ContactEmail,
		PostingDate:      now,
		ExpirationDate:   expiration,
		ModerationStatus: status,
	}

	id, err := p.storage.SavePosting(posting)
	if err != nil {
		return domain.JobPosting{}, err
	}
	posting.Id = id
	return posting, nil
}

// transitions lists the permitted moderation moves. Removed is terminal;
// anonymization is orthogonal and never goes through here.
var transitions = map[domain.ModerationStatus][]domain.ModerationStatus{
	domain.ModerationPending:  {domain.ModerationApproved, domain.ModerationFlagged, domain.ModerationRemoved},
	domain.ModerationApproved: {domain.ModerationFlagged, domain.ModerationRemoved},
	domain.ModerationFlagged:  {domain.ModerationApproved, domain.ModerationRemoved},
	domain.ModerationRemoved:  {},
}

func transitionAllowed(from, to domain.ModerationStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Moderate applies an administrator decision. The admin capability is an
// explicit assertion on the caller, not a framework role.
func (p *Postings) Moderate(id domain.PostingId, admin *domain.User, newStatus domain.ModerationStatus, notes string) error {
	if admin == nil || !admin.Admin {
		return &errors.ErrorWithStatusCode{Message: "Moderation requires an administrator", StatusCode: http.StatusForbidden}
	}

	posting, err := p.storage.Posting(id)
	if err != nil {
		return err
	}
	if !transitionAllowed(posting.ModerationStatus, newStatus) {
		return &errors.InvalidTransition{From: posting.ModerationStatus, To: newStatus}
	}

	applied, err := p.storage.SetModerationStatus(id, posting.ModerationStatus, newStatus, admin.Email, notes)
	if err != nil {
		return err
	}
	if !applied {
		// Lost a race against another moderator; report against the state we saw.
		return &errors.InvalidTransition{From: posting.ModerationStatus, To: newStatus}
	}
	return nil
}

// PublicListings returns postings satisfying the visibility invariant, with
// the filter's predicates AND-combined. Default order is posting date
// descending; ties break by id ascending for determinism.
func (p *Postings) PublicListings(filter domain.ListingFilter) ([]domain.JobPosting, error) {
	if filter.SortBy == "" {
		filter.SortBy = domain.SortByPostingDate
	}
	if filter.SortDirection == "" {
		filter.SortDirection = domain.SortDesc
	}
	switch filter.SortBy {
	case domain.SortByPostingDate, domain.SortByExpirationDate, domain.SortByTitle:
	default:
		return nil, &errors.ValidationError{Field: "sort_field", Reason: "unknown sort field"}
	}
	switch filter.SortDirection {
	case domain.SortAsc, domain.SortDesc:
	default:
		return nil, &errors.ValidationError{Field: "sort_direction", Reason: "must be asc or desc"}
	}

	return p.storage.PublicPostings(filter, time.Now().UTC())
}

// Posting returns a posting for the given caller. Anonymous callers and
// non-owners only see publicly visible postings; the owner sees status
// metadata regardless.
func (p *Postings) Posting(id domain.PostingId, caller *domain.User) (domain.JobPosting, error) {
	posting, err := p.storage.Posting(id)
	if err != nil {
		return domain.JobPosting{}, err
	}

	isOwner := caller != nil && NormalizeEmail(caller.Email) == posting.OwnerEmail
	isAdmin := caller != nil && caller.Admin
	if !isOwner && !isAdmin && !posting.PubliclyVisible(time.Now().UTC()) {
		return domain.JobPosting{}, &errors.NotFoundError{Entity: "posting", Id: id}
	}
	return posting, nil
}

// OwnerListings returns all postings owned by the email, any status.
func (p *Postings) OwnerListings(owner domain.Email) ([]domain.JobPosting, error) {
	return p.storage.PostingsByOwner(NormalizeEmail(owner))
}

// RequestDeletion issues a short-lived delete token bound to the posting and
// its owner, and mails the confirmation link. Token issuance is the
// operation; a delivery failure is logged, not propagated.
func (p *Postings) RequestDeletion(id domain.PostingId, requester domain.Email) error {
	posting, err := p.storage.Posting(id)
	if err != nil {
		return err
	}
	if NormalizeEmail(requester) != posting.OwnerEmail {
		return &errors.ErrorWithStatusCode{Message: "Only the posting owner may request deletion", StatusCode: http.StatusForbidden}
	}

	value, err := p.tokens.Issue(posting.OwnerEmail, domain.TokenPurposeDelete, p.cfg.DeleteTokenTTL, &posting.Id)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`Hello,

You asked to delete the posting "%s". Confirm with the link below within %s.
Deletion is permanent and removes all contact messages for this posting.

%s

If you did not request this, please ignore this email.
`, posting.Title, p.cfg.DeleteTokenTTL, p.links.DeleteLink(value))

	if err := p.email.Send(posting.OwnerEmail, "Confirm posting deletion", body); err != nil {
		logger.Log.Warn("deletion link delivery failed, token remains valid",
			"posting_id", posting.Id,
			"error", err)
	}
	return nil
}

// ConfirmDeletion redeems a delete token and permanently removes the bound
// posting. Contact messages cascade at the storage layer.
func (p *Postings) ConfirmDeletion(tokenValue string) error {
	token, err := p.tokens.ValidateAndConsume(tokenValue, domain.TokenPurposeDelete)
	if err != nil {
		return err
	}
	if token.PostingId == nil {
		logger.Log.Error("delete token without posting binding", "email", token.Email)
		return errors.ErrTokenNotFound
	}
	return p.storage.DeletePosting(*token.PostingId)
}

// Anonymize redacts the personally identifying fields of a posting. System
// use only (the sweeper); idempotent, so repeated calls are no-ops.
func (p *Postings) Anonymize(id domain.PostingId) error {
	_, err := p.storage.AnonymizePosting(id)
	return err
}

func (p *Postings) validateFields(fields NewPosting) error {
	if fields.Title == "" {
		return &errors.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if fields.Location == "" {
		return &errors.ValidationError{Field: "location", Reason: "must not be empty"}
	}
	if fields.Level < 0 || fields.Level > 100 {
		return &errors.ValidationError{Field: "level", Reason: "must be between 0 and 100"}
	}
	if !validAlternationTypes[fields.AlternationType] {
		return &errors.ValidationError{Field: "alternation_type", Reason: "unknown alternation type"}
	}
	if !validLanguageProfiles[fields.LanguageProfile] {
		return &errors.ValidationError{Field: "language_profile", Reason: "unknown language profile"}
	}
	if fields.ContactEmail != nil {
		if err := p.email.IsCorrect(*fields.ContactEmail); err != nil {
			return &errors.ValidationError{Field: "contact_email", Reason: "not a valid email address"}
		}
	}
	if p.cfg.MaxPostingDescription > 0 && len(fields.Description) > p.cfg.MaxPostingDescription {
		return &errors.ValidationError{Field: "description", Reason: "too long"}
	}

	ok, err := p.storage.DepartmentExists(fields.DepartmentId)
	if err != nil {
		return err
	}
	if !ok {
		return &errors.ValidationError{Field: "department_id", Reason: "unknown department"}
	}
	ok, err = p.storage.ClassificationExists(fields.ClassificationId)
	if err != nil {
		return err
	}
	if !ok {
		return &errors.ValidationError{Field: "classification_id", Reason: "unknown classification"}
	}
	return nil
}
