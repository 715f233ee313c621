package domain

import "time"

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationFlagged  ModerationStatus = "flagged"
	ModerationRemoved  ModerationStatus = "removed"
)

type ClassificationType string

const (
	ClassificationPermanent ClassificationType = "PERMANENT"
	ClassificationTemporary ClassificationType = "TEMPORARY"
	ClassificationContract  ClassificationType = "CONTRACT"
	ClassificationCasual    ClassificationType = "CASUAL"
)

type LanguageProfile string

const (
	LanguageEnglish          LanguageProfile = "ENGLISH"
	LanguageFrench           LanguageProfile = "FRENCH"
	LanguageBilingual        LanguageProfile = "BILINGUAL"
	LanguageEnglishPreferred LanguageProfile = "ENGLISH_PREFERRED"
	LanguageFrenchPreferred  LanguageProfile = "FRENCH_PREFERRED"
)

// Criteria is the free-form alternation criteria mapping: arbitrary string
// keys to ordered lists of strings. It may contain personal data, so
// anonymization redacts it wholesale.
type Criteria map[string][]string

type JobPosting struct {
	Id PostingId
	// OwnerEmail is a weak reference by identity email, not a FK: the
	// posting must outlive accidental identity edits.
	OwnerEmail       Email
	Title            string
	DepartmentId     DepartmentId
	Location         string
	ClassificationId ClassificationId
	Level            int
	AlternationType  ClassificationType
	LanguageProfile  LanguageProfile
	Criteria         Criteria
	Description      string
	ContactEmail     *Email
	PostingDate      time.Time
	ExpirationDate   time.Time
	ModerationStatus ModerationStatus
	ModeratedBy      *Email
	ModeratedAt      *time.Time
	ModerationNotes  string
	Anonymized       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PubliclyVisible reports whether the posting satisfies the visibility
// invariant: approved, not anonymized, not yet expired.
func (p *JobPosting) PubliclyVisible(now time.Time) bool {
	return p.ModerationStatus == ModerationApproved && !p.Anonymized && !p.ExpirationDate.Before(now)
}

type SortField string

const (
	SortByPostingDate    SortField = "posting_date"
	SortByExpirationDate SortField = "expiration_date"
	SortByTitle          SortField = "title"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ListingFilter holds the optional public-listing predicates. Nil pointer
// means "no filter on that field"; all present predicates are AND-combined.
type ListingFilter struct {
	DepartmentId     *DepartmentId
	Location         *string
	ClassificationId *ClassificationId
	Level            *int
	AlternationType  *ClassificationType
	LanguageProfile  *LanguageProfile
	PostedAfter      *time.Time
	PostedBefore     *time.Time
	SortBy           SortField
	SortDirection    SortDirection
}
