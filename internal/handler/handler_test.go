package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/waap-dev/waap/internal/captcha"
	"github.com/waap-dev/waap/internal/config"
	"github.com/waap-dev/waap/internal/domain"
	internal_errors "github.com/waap-dev/waap/internal/errors"
	"github.com/waap-dev/waap/internal/handler"
	"github.com/waap-dev/waap/internal/middleware"
	"github.com/waap-dev/waap/internal/router"
	"github.com/waap-dev/waap/internal/service"
	"github.com/waap-dev/waap/internal/setup"
	"github.com/waap-dev/waap/internal/utils/jwt"
)

// memoryStore implements every storage interface in memory, so handler tests
// exercise the full stack below the HTTP surface without a database.
type memoryStore struct {
	mu           sync.Mutex
	tokens       map[string]*domain.OneTimeToken
	users        map[domain.UserId]domain.User
	usersByEmail map[domain.Email]domain.UserId
	nextUserId   domain.UserId
	postings     map[domain.PostingId]domain.JobPosting
	nextPosting  domain.PostingId
	messages     []domain.ContactMessage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tokens:       make(map[string]*domain.OneTimeToken),
		users:        make(map[domain.UserId]domain.User),
		usersByEmail: make(map[domain.Email]domain.UserId),
		postings:     make(map[domain.PostingId]domain.JobPosting),
	}
}

func (s *memoryStore) SaveToken(token domain.OneTimeToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ValueHash] = &token
	return nil
}

func (s *memoryStore) ConsumeToken(valueHash string, purpose domain.TokenPurpose) (domain.OneTimeToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[valueHash]
	if !ok {
		return domain.OneTimeToken{}, internal_errors.ErrTokenNotFound
	}
	if token.Purpose != purpose {
		return domain.OneTimeToken{}, internal_errors.ErrTokenPurposeMismatch
	}
	if !token.ExpiresAt.After(time.Now().UTC()) {
		return domain.OneTimeToken{}, internal_errors.ErrTokenExpired
	}
	if token.Used {
		return domain.OneTimeToken{}, internal_errors.ErrTokenAlreadyUsed
	}
	token.Used = true
	return *token, nil
}

func (s *memoryStore) DeleteExpiredTokens(olderThan time.Time) (int64, error) {
	return 0, nil
}

func (s *memoryStore) SaveUser(user domain.User) (domain.UserId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[user.Email]; exists {
		return 0, &internal_errors.ErrorWithStatusCode{Message: "User already exists", StatusCode: http.StatusConflict}
	}
	s.nextUserId++
	user.Id = s.nextUserId
	user.CreatedAt = time.Now().UTC()
	s.users[user.Id] = user
	s.usersByEmail[user.Email] = user.Id
	return user.Id, nil
}

func (s *memoryStore) User(id domain.UserId) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
	}
	return user, nil
}

func (s *memoryStore) UserByEmail(email domain.Email) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usersByEmail[email]
	if !ok {
		return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
	}
	return s.users[id], nil
}

func (s *memoryStore) UpdateProfile(id domain.UserId, update domain.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return &internal_errors.ErrorWithStatusCode{Message: "User not found for profile update", StatusCode: http.StatusNotFound}
	}
	user.FirstName = update.FirstName
	user.LastName = update.LastName
	user.DepartmentId = update.DepartmentId
	user.ClassificationId = update.ClassificationId
	user.Level = update.Level
	s.users[id] = user
	return nil
}

func (s *memoryStore) Departments() ([]domain.Department, error) {
	return []domain.Department{{Id: 1, Name: "Information Technology"}}, nil
}

func (s *memoryStore) DepartmentExists(id domain.DepartmentId) (bool, error) {
	return id == 1, nil
}

func (s *memoryStore) Classifications() ([]domain.Classification, error) {
	return []domain.Classification{{Id: 1, Name: "CS - Computer Systems"}}, nil
}

func (s *memoryStore) ClassificationExists(id domain.ClassificationId) (bool, error) {
	return id == 1, nil
}

func (s *memoryStore) SavePosting(posting domain.JobPosting) (domain.PostingId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPosting++
	posting.Id = s.nextPosting
	s.postings[posting.Id] = posting
	return posting.Id, nil
}

func (s *memoryStore) Posting(id domain.PostingId) (domain.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posting, ok := s.postings[id]
	if !ok {
		return domain.JobPosting{}, &internal_errors.NotFoundError{Entity: "posting", Id: id}
	}
	return posting, nil
}

func (s *memoryStore) PostingsByOwner(owner domain.Email) ([]domain.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.JobPosting
	for _, p := range s.postings {
		if p.OwnerEmail == owner {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *memoryStore) PublicPostings(filter domain.ListingFilter, now time.Time) ([]domain.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.JobPosting
	for _, p := range s.postings {
		if !p.PubliclyVisible(now) {
			continue
		}
		if filter.Location != nil && p.Location != *filter.Location {
			continue
		}
		if filter.DepartmentId != nil && p.DepartmentId != *filter.DepartmentId {
			continue
		}
		if filter.Level != nil && p.Level != *filter.Level {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *memoryStore) SetModerationStatus(id domain.PostingId, from, to domain.ModerationStatus, moderator domain.Email, notes string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posting, ok := s.postings[id]
	if !ok || posting.ModerationStatus != from {
		return false, nil
	}
	now := time.Now().UTC()
	posting.ModerationStatus = to
	posting.ModeratedBy = &moderator
	posting.ModeratedAt = &now
	posting.ModerationNotes = notes
	s.postings[id] = posting
	return true, nil
}

func (s *memoryStore) AnonymizePosting(id domain.PostingId) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posting, ok := s.postings[id]
	if !ok {
		return false, &internal_errors.NotFoundError{Entity: "posting", Id: id}
	}
	if posting.Anonymized {
		return false, nil
	}
	posting.Anonymized = true
	posting.ContactEmail = nil
	posting.Criteria = domain.Criteria{}
	posting.Description = ""
	s.postings[id] = posting
	return true, nil
}

func (s *memoryStore) DeletePosting(id domain.PostingId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.postings[id]; !ok {
		return &internal_errors.NotFoundError{Entity: "posting", Id: id}
	}
	delete(s.postings, id)
	return nil
}

func (s *memoryStore) SaveContactMessage(msg domain.ContactMessage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return int64(len(s.messages)), nil
}

func (s *memoryStore) Ping(ctx context.Context) error { return nil }

// recorderEmail captures outbound mail instead of delivering it.
type recorderEmail struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	Recipient string
	ReplyTo   string
	Subject   string
	Body      string
}

func (e *recorderEmail) Send(recipientEmail, subject, body string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, sentMail{Recipient: recipientEmail, Subject: subject, Body: body})
	return nil
}

func (e *recorderEmail) SendWithReplyTo(recipientEmail, replyTo, subject, body string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, sentMail{Recipient: recipientEmail, ReplyTo: replyTo, Subject: subject, Body: body})
	return nil
}

func (e *recorderEmail) IsCorrect(email domain.Email) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return &internal_errors.ErrorWithStatusCode{Message: err.Error(), StatusCode: http.StatusBadRequest}
	}
	return nil
}

func (e *recorderEmail) last(t *testing.T) sentMail {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	require.NotEmpty(t, e.sent, "expected at least one email")
	return e.sent[len(e.sent)-1]
}

type fixture struct {
	router http.Handler
	store  *memoryStore
	email  *recorderEmail
	jwt    *jwt.Jwt
	cfg    *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Public: config.Public{
			JwtTTL:                time.Hour,
			LoginTokenTTL:         24 * time.Hour,
			DeleteTokenTTL:        time.Hour,
			PostingLifetimeDays:   30,
			AutoApprovePostings:   true,
			AllowedEmailDomains:   []string{"gc.ca"},
			MaxContactMessageLen:  5000,
			MaxPostingDescription: 20000,
		},
		Private: config.Private{JwtKey: "test-secret"},
	}

	store := newMemoryStore()
	mailer := &recorderEmail{}
	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	tokens := service.NewTokens(store)
	users := service.NewUsers(store, cfg.Public.AllowedEmailDomains)
	links := testLinks{}
	auth := service.NewAuth(tokens, users, mailer, jwtService, &cfg.Public, links)
	postings := service.NewPostings(store, tokens, mailer, &cfg.Public, links)
	contact := service.NewContact(store, mailer, captcha.AlwaysValid{}, &cfg.Public)

	h := handler.New(auth, users, postings, contact, cfg, store)
	deps := &setup.Dependencies{
		Config:         cfg,
		Handler:        h,
		AuthMiddleware: middleware.NewAuth(jwtService, false),
		Jwt:            jwtService,
	}

	return &fixture{
		router: router.New(deps),
		store:  store,
		email:  mailer,
		jwt:    jwtService,
		cfg:    cfg,
	}
}

type testLinks struct{}

func (testLinks) LoginLink(tokenValue string) string {
	return "http://waap.test/v1/auth/verify/" + tokenValue
}

func (testLinks) DeleteLink(tokenValue string) string {
	return "http://waap.test/v1/postings/delete_confirm/" + tokenValue
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, accessToken string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// sessionFor registers a full identity directly and returns its session token.
func (f *fixture) sessionFor(t *testing.T, emailAddr domain.Email, admin bool) (string, domain.User) {
	t.Helper()
	user := domain.User{
		Email:            emailAddr,
		FirstName:        "Avery",
		LastName:         "Tremblay",
		DepartmentId:     1,
		ClassificationId: 1,
		Level:            2,
		Admin:            admin,
	}
	id, err := f.store.SaveUser(user)
	require.NoError(t, err)
	user.Id = id

	token, err := f.jwt.NewToken(user)
	require.NoError(t, err)
	return token, user
}
