package api

import (
	"time"

	"github.com/waap-dev/waap/internal/domain"
)

// Request DTOs

type UpdateProfileRequest struct {
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name" validate:"required"`
	DepartmentId     int64  `json:"department_id" validate:"required"`
	ClassificationId int64  `json:"classification_id" validate:"required"`
	Level            int    `json:"level"`
}

// Response DTOs

type UserResponse struct {
	Id               int64     `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	DepartmentId     int64     `json:"department_id"`
	ClassificationId int64     `json:"classification_id"`
	Level            int       `json:"level"`
	Admin            bool      `json:"admin"`
	CreatedAt        time.Time `json:"created_at"`
}

func NewUserResponse(user domain.User) *UserResponse {
	return &UserResponse{
		Id:               user.Id,
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		DepartmentId:     user.DepartmentId,
		ClassificationId: user.ClassificationId,
		Level:            user.Level,
		Admin:            user.Admin,
		CreatedAt:        user.CreatedAt,
	}
}

type ReferenceItem struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
}

type DepartmentListResponse struct {
	Departments []ReferenceItem `json:"departments"`
}

type ClassificationListResponse struct {
	Classifications []ReferenceItem `json:"classifications"`
}
