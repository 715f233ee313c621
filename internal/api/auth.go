package api

// Request DTOs

type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CompleteRegistrationRequest struct {
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name" validate:"required"`
	DepartmentId     int64  `json:"department_id" validate:"required"`
	ClassificationId int64  `json:"classification_id" validate:"required"`
	Level            int    `json:"level"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response DTOs

type MessageResponse struct {
	Message string `json:"message"`
}

type VerifyResponse struct {
	Message           string        `json:"message"`
	AccessToken       string        `json:"access_token,omitempty"` // Token for non-cookie clients
	NeedsRegistration bool          `json:"needs_registration"`
	User              *UserResponse `json:"user,omitempty"`
}

type LoginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
}
