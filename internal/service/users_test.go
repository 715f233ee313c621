package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waap-dev/waap/internal/domain"
	internal_errors "github.com/waap-dev/waap/internal/errors"
)

// --- Mocks ---

type MockUserStorage struct {
	SaveUserFunc             func(user domain.User) (domain.UserId, error)
	UserFunc                 func(id domain.UserId) (domain.User, error)
	UserByEmailFunc          func(email domain.Email) (domain.User, error)
	UpdateProfileFunc        func(id domain.UserId, update domain.ProfileUpdate) error
	DepartmentsFunc          func() ([]domain.Department, error)
	DepartmentExistsFunc     func(id domain.DepartmentId) (bool, error)
	ClassificationsFunc      func() ([]domain.Classification, error)
	ClassificationExistsFunc func(id domain.ClassificationId) (bool, error)
}

func (m *MockUserStorage) SaveUser(user domain.User) (domain.UserId, error) {
	if m.SaveUserFunc != nil {
		return m.SaveUserFunc(user)
	}
	return 1, nil
}

func (m *MockUserStorage) User(id domain.UserId) (domain.User, error) {
	if m.UserFunc != nil {
		return m.UserFunc(id)
	}
	return domain.User{Id: id}, nil
}

func (m *MockUserStorage) UserByEmail(email domain.Email) (domain.User, error) {
	if m.UserByEmailFunc != nil {
		return m.UserByEmailFunc(email)
	}
	// Default: Not found
	return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
}

func (m *MockUserStorage) UpdateProfile(id domain.UserId, update domain.ProfileUpdate) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(id, update)
	}
	return nil
}

func (m *MockUserStorage) Departments() ([]domain.Department, error) {
	if m.DepartmentsFunc != nil {
		return m.DepartmentsFunc()
	}
	return []domain.Department{{Id: 1, Name: "Information Technology"}}, nil
}

func (m *MockUserStorage) DepartmentExists(id domain.DepartmentId) (bool, error) {
	if m.DepartmentExistsFunc != nil {
		return m.DepartmentExistsFunc(id)
	}
	return true, nil
}

func (m *MockUserStorage) Classifications() ([]domain.Classification, error) {
	if m.ClassificationsFunc != nil {
		return m.ClassificationsFunc()
	}
	return []domain.Classification{{Id: 1, Name: "CS - Computer Systems"}}, nil
}

func (m *MockUserStorage) ClassificationExists(id domain.ClassificationId) (bool, error) {
	if m.ClassificationExistsFunc != nil {
		return m.ClassificationExistsFunc(id)
	}
	return true, nil
}

func validProfile() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		FirstName:        "Avery",
		LastName:         "Tremblay",
		DepartmentId:     1,
		ClassificationId: 1,
		Level:            3,
	}
}

// --- Tests ---

func TestCheckDomain(t *testing.T) {
	users := NewUsers(&MockUserStorage{}, []string{"gc.ca", "canada.ca"})

	testCases := []struct {
		name    string
		email   domain.Email
		wantErr error
	}{
		{"exact allowed domain", "user@gc.ca", nil},
		{"subdomain of allowed", "user@tbs-sct.gc.ca", nil},
		{"second allowed domain", "user@canada.ca", nil},
		{"mixed case", "User@TBS-SCT.GC.CA", nil},
		{"outside domain", "user@example.com", internal_errors.ErrUnauthorizedDomain},
		{"suffix but not subdomain", "user@notgc.ca", internal_errors.ErrUnauthorizedDomain},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := users.CheckDomain(tc.email)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("malformed email", func(t *testing.T) {
		err := users.CheckDomain("not-an-email")
		assert.True(t, internal_errors.Is[*internal_errors.ValidationError](err))
	})

	t.Run("empty list disables the check", func(t *testing.T) {
		open := NewUsers(&MockUserStorage{}, nil)
		assert.NoError(t, open.CheckDomain("anyone@example.com"))
	})
}

func TestResolve(t *testing.T) {
	t.Run("known identity", func(t *testing.T) {
		storage := &MockUserStorage{
			UserByEmailFunc: func(email domain.Email) (domain.User, error) {
				assert.Equal(t, "known@gc.ca", email, "lookup uses the normalized email")
				return domain.User{Id: 7, Email: email}, nil
			},
		}
		user, isNew, err := NewUsers(storage, nil).Resolve(" Known@GC.CA ")
		require.NoError(t, err)
		assert.False(t, isNew)
		assert.Equal(t, domain.UserId(7), user.Id)
	})

	t.Run("unknown identity is not an error", func(t *testing.T) {
		user, isNew, err := NewUsers(&MockUserStorage{}, nil).Resolve("new@gc.ca")
		require.NoError(t, err)
		assert.True(t, isNew)
		assert.Zero(t, user.Id)
	})
}

func TestCompleteRegistration(t *testing.T) {
	var saved domain.User
	storage := &MockUserStorage{
		SaveUserFunc: func(user domain.User) (domain.UserId, error) {
			saved = user
			return 11, nil
		},
	}
	users := NewUsers(storage, nil)

	user, err := users.CompleteRegistration("New@GC.CA", validProfile())
	require.NoError(t, err)
	assert.Equal(t, domain.UserId(11), user.Id)
	assert.Equal(t, "new@gc.ca", saved.Email)
	assert.Equal(t, "Avery", saved.FirstName)
	assert.False(t, saved.Admin, "registration never grants admin")
}

func TestProfileValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*domain.ProfileUpdate)
		field  string
	}{
		{"empty first name", func(p *domain.ProfileUpdate) { p.FirstName = "" }, "first_name"},
		{"empty last name", func(p *domain.ProfileUpdate) { p.LastName = "" }, "last_name"},
		{"level below range", func(p *domain.ProfileUpdate) { p.Level = -1 }, "level"},
		{"level above range", func(p *domain.ProfileUpdate) { p.Level = 101 }, "level"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			profile := validProfile()
			tc.mutate(&profile)
			_, err := NewUsers(&MockUserStorage{}, nil).CompleteRegistration("new@gc.ca", profile)
			require.Error(t, err)
			var ve *internal_errors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	t.Run("unknown department", func(t *testing.T) {
		storage := &MockUserStorage{
			DepartmentExistsFunc: func(id domain.DepartmentId) (bool, error) { return false, nil },
		}
		_, err := NewUsers(storage, nil).CompleteRegistration("new@gc.ca", validProfile())
		var ve *internal_errors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "department_id", ve.Field)
	})

	t.Run("unknown classification", func(t *testing.T) {
		storage := &MockUserStorage{
			ClassificationExistsFunc: func(id domain.ClassificationId) (bool, error) { return false, nil },
		}
		_, err := NewUsers(storage, nil).CompleteRegistration("new@gc.ca", validProfile())
		var ve *internal_errors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "classification_id", ve.Field)
	})
}

func TestUpdateProfile(t *testing.T) {
	var gotId domain.UserId
	storage := &MockUserStorage{
		UpdateProfileFunc: func(id domain.UserId, update domain.ProfileUpdate) error {
			gotId = id
			return nil
		},
	}
	users := NewUsers(storage, nil)

	require.NoError(t, users.UpdateProfile(5, validProfile()))
	assert.Equal(t, domain.UserId(5), gotId)

	profile := validProfile()
	profile.FirstName = ""
	err := users.UpdateProfile(5, profile)
	assert.True(t, internal_errors.Is[*internal_errors.ValidationError](err))
}
