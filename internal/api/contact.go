package api

// Request DTOs

type ContactRequest struct {
	SenderName      string `json:"sender_name" validate:"required"`
	SenderEmail     string `json:"sender_email" validate:"required,email"`
	Message         string `json:"message" validate:"required"`
	CaptchaResponse string `json:"captcha_response"`
}
