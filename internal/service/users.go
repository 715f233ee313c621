package service

import (
	"strings"

	"github.com/waap-dev/waap/internal/domain"
	"github.com/waap-dev/waap/internal/errors"
)

type UserStorage interface {
	SaveUser(user domain.User) (domain.UserId, error)
	User(id domain.UserId) (domain.User, error)
	UserByEmail(email domain.Email) (domain.User, error)
	UpdateProfile(id domain.UserId, update domain.ProfileUpdate) error

	Departments() ([]domain.Department, error)
	DepartmentExists(id domain.DepartmentId) (bool, error)
	Classifications() ([]domain.Classification, error)
	ClassificationExists(id domain.ClassificationId) (bool, error)
}

// Users is the directory of verified identities. Identities are persisted
// only after profile completion: an email that redeems a login token but
// never completes registration leaves no row behind.
type Users struct {
	storage        UserStorage
	allowedDomains []string
}

func NewUsers(storage UserStorage, allowedDomains []string) *Users {
	return &Users{storage: storage, allowedDomains: allowedDomains}
}

// NormalizeEmail lowercases and trims an address handled by the directory.
func NormalizeEmail(email domain.Email) domain.Email {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckDomain rejects identities outside the approved government domains.
// An empty allow-list disables the restriction (test/dev configurations).
func (u *Users) CheckDomain(email domain.Email) error {
	if len(u.allowedDomains) == 0 {
		return nil
	}
	email = NormalizeEmail(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return &errors.ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	emailDomain := email[at+1:]
	for _, allowed := range u.allowedDomains {
		if emailDomain == allowed || strings.HasSuffix(emailDomain, "."+allowed) {
			return nil
		}
	}
	return errors.ErrUnauthorizedDomain
}

// Resolve looks up the identity for a verified email. isNew=true means no
// identity exists yet and the caller must take the visitor through profile
// completion before anything is persisted.
func (u *Users) Resolve(email domain.Email) (domain.User, bool, error) {
	email = NormalizeEmail(email)
	user, err := u.storage.UserByEmail(email)
	if err != nil {
		if errors.IsNotFound(err) {
			return domain.User{}, true, nil
		}
		return domain.User{}, false, err
	}
	return user, false, nil
}

// CompleteRegistration persists the identity for a verified email. The email
// must already have passed the domain check during token issuance.
func (u *Users) CompleteRegistration(email domain.Email, profile domain.ProfileUpdate) (domain.User, error) {
	email = NormalizeEmail(email)
	if err := u.validateProfile(profile); err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		Email:            email,
		FirstName:        profile.FirstName,
		LastName:         profile.LastName,
		DepartmentId:     profile.DepartmentId,
		ClassificationId: profile.ClassificationId,
		Level:            profile.Level,
	}
	id, err := u.storage.SaveUser(user)
	if err != nil {
		return domain.User{}, err
	}
	user.Id = id
	return user, nil
}

// UpdateProfile mutates the profile fields of an existing identity. Email is
// immutable post-creation, so it is not part of ProfileUpdate at all.
func (u *Users) UpdateProfile(id domain.UserId, profile domain.ProfileUpdate) error {
	if err := u.validateProfile(profile); err != nil {
		return err
	}
	return u.storage.UpdateProfile(id, profile)
}

func (u *Users) User(id domain.UserId) (domain.User, error) {
	return u.storage.User(id)
}

func (u *Users) Departments() ([]domain.Department, error) {
	return u.storage.Departments()
}

func (u *Users) Classifications() ([]domain.Classification, error) {
	return u.storage.Classifications()
}

func (u *Users) validateProfile(profile domain.ProfileUpdate) error {
	if profile.FirstName == "" {
		return &errors.ValidationError{Field: "first_name", Reason: "must not be empty"}
	}
	if profile.LastName == "" {
		return &errors.ValidationError{Field: "last_name", Reason: "must not be empty"}
	}
	if profile.Level < 0 || profile.Level > 100 {
		return &errors.ValidationError{Field: "level", Reason: "must be between 0 and 100"}
	}

	ok, err := u.storage.DepartmentExists(profile.DepartmentId)
	if err != nil {
		return err
	}
	if !ok {
		return &errors.ValidationError{Field: "department_id", Reason: "unknown department"}
	}

	ok, err = u.storage.ClassificationExists(profile.ClassificationId)
	if err != nil {
		return err
	}
	if !ok {
		return &errors.ValidationError{Field: "classification_id", Reason: "unknown classification"}
	}
	return nil
}
