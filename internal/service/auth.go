package service

import (
	"fmt"
	"net/http"

	"github.com/waap-dev/waap/internal/config"
	"github.com/waap-dev/waap/internal/domain"
	"github.com/waap-dev/waap/internal/errors"
	"github.com/waap-dev/waap/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

type Email interface {
	Send(recipientEmail, subject, body string) error
	SendWithReplyTo(recipientEmail, replyTo, subject, body string) error
	IsCorrect(email domain.Email) error
}

type Jwt interface {
	NewToken(user domain.User) (string, error)
	NewRegistrationToken(email domain.Email) (string, error)
}

// VerifyResult is the outcome of a redeemed login token. When the email has
// no persisted identity yet, NeedsRegistration is true and SessionToken is a
// provisional registration session.
type VerifyResult struct {
	SessionToken      string
	NeedsRegistration bool
	User              domain.User
}

// Auth orchestrates the passwordless login flow: a token request emails a
// single-use link; redeeming the link establishes a session.
type Auth struct {
	tokens *Tokens
	users  *Users
	email  Email
	jwt    Jwt
	cfg    *config.Public
	links  LinkBuilder
}

// LinkBuilder turns a raw token value into the URL placed in an email.
type LinkBuilder interface {
	LoginLink(tokenValue string) string
	DeleteLink(tokenValue string) string
}

func NewAuth(tokens *Tokens, users *Users, email Email, jwt Jwt, cfg *config.Public, links LinkBuilder) *Auth {
	return &Auth{
		tokens: tokens,
		users:  users,
		email:  email,
		jwt:    jwt,
		cfg:    cfg,
		links:  links,
	}
}

// RequestLogin issues a login token for the email and mails the link.
// Issuance succeeds even if delivery later fails: the failure is logged and
// surfaced to the caller as a warning, never as a hard error.
func (a *Auth) RequestLogin(email domain.Email) error {
	email = NormalizeEmail(email)

	if err := a.email.IsCorrect(email); err != nil {
		return err
	}
	if err := a.users.CheckDomain(email); err != nil {
		return err
	}

	value, err := a.tokens.Issue(email, domain.TokenPurposeLogin, a.cfg.LoginTokenTTL, nil)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`Hello,

Use the link below to sign in. It works exactly once and expires in %s.

%s

If you did not request this, please ignore this email.
`, a.cfg.LoginTokenTTL, a.links.LoginLink(value))

	if err := a.email.Send(email, "Your WAAP login link", body); err != nil {
		logger.Log.Warn("login link delivery failed, token remains valid",
			"email", email,
			"error", err)
	}
	return nil
}

// VerifyLogin redeems a login token. For a known identity it returns a full
// session; for an unknown one, a provisional registration session so the
// profile can be completed without re-verifying the email.
func (a *Auth) VerifyLogin(tokenValue string) (VerifyResult, error) {
	token, err := a.tokens.ValidateAndConsume(tokenValue, domain.TokenPurposeLogin)
	if err != nil {
		return VerifyResult{}, err
	}

	user, isNew, err := a.users.Resolve(token.Email)
	if err != nil {
		return VerifyResult{}, err
	}

	if isNew {
		sessionToken, err := a.jwt.NewRegistrationToken(token.Email)
		if err != nil {
			return VerifyResult{}, err
		}
		return VerifyResult{SessionToken: sessionToken, NeedsRegistration: true}, nil
	}

	sessionToken, err := a.jwt.NewToken(user)
	if err != nil {
		logger.Log.Error("failed to create session token", "user_id", user.Id, "error", err)
		return VerifyResult{}, err
	}
	return VerifyResult{SessionToken: sessionToken, User: user}, nil
}

// CompleteRegistration persists the identity from a registration session and
// upgrades it to a full session.
func (a *Auth) CompleteRegistration(email domain.Email, profile domain.ProfileUpdate) (string, domain.User, error) {
	user, err := a.users.CompleteRegistration(email, profile)
	if err != nil {
		return "", domain.User{}, err
	}
	sessionToken, err := a.jwt.NewToken(user)
	if err != nil {
		logger.Log.Error("failed to create session token", "user_id", user.Id, "error", err)
		return "", domain.User{}, err
	}
	return sessionToken, user, nil
}

// AdminLogin authenticates an administrator account by password. Regular
// identities are passwordless; only admin accounts carry a hash.
func (a *Auth) AdminLogin(email domain.Email, password string) (string, error) {
	email = NormalizeEmail(email)

	user, _, err := a.users.Resolve(email)
	if err != nil {
		return "", err
	}
	// to not leak existing accounts
	invalid := &errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}
	if user.Id == 0 || !user.Admin || user.PassHash == "" {
		return "", invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)); err != nil {
		logger.Log.Error("admin password verification failed", "error", err)
		return "", invalid
	}

	sessionToken, err := a.jwt.NewToken(user)
	if err != nil {
		logger.Log.Error("failed to create session token", "user_id", user.Id, "error", err)
		return "", err
	}
	return sessionToken, nil
}
