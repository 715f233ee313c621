package handler

import (
	"net/http"

	"github.com/waap-dev/waap/internal/api"
	"github.com/waap-dev/waap/internal/domain"
	mw "github.com/waap-dev/waap/internal/middleware"
	"github.com/waap-dev/waap/internal/utils"
)

// Me returns the authenticated identity's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaimsFromContext(r)
	if claims == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	user, err := h.users.User(claims.UserId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.NewUserResponse(user))
}

// UpdateProfile changes the mutable profile fields. Email is immutable.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaimsFromContext(r)
	if claims == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	var body api.UpdateProfileRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err := h.users.UpdateProfile(claims.UserId, domain.ProfileUpdate{
		FirstName:        body.FirstName,
		LastName:         body.LastName,
		DepartmentId:     body.DepartmentId,
		ClassificationId: body.ClassificationId,
		Level:            body.Level,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.users.User(claims.UserId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.NewUserResponse(user))
}

// Departments lists the reference departments for profile and posting forms.
func (h *Handler) Departments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.users.Departments()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	items := make([]api.ReferenceItem, len(departments))
	for i, d := range departments {
		items[i] = api.ReferenceItem{Id: d.Id, Name: d.Name}
	}
	writeJSON(w, api.DepartmentListResponse{Departments: items})
}

// Classifications lists the reference classifications.
func (h *Handler) Classifications(w http.ResponseWriter, r *http.Request) {
	classifications, err := h.users.Classifications()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	items := make([]api.ReferenceItem, len(classifications))
	for i, c := range classifications {
		items[i] = api.ReferenceItem{Id: c.Id, Name: c.Name}
	}
	writeJSON(w, api.ClassificationListResponse{Classifications: items})
}
