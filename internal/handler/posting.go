package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/waap-dev/waap/internal/api"
	"github.com/waap-dev/waap/internal/domain"
	mw "github.com/waap-dev/waap/internal/middleware"
	"github.com/waap-dev/waap/internal/service"
	"github.com/waap-dev/waap/internal/utils"
)

// CreatePosting creates a posting owned by the authenticated identity.
func (h *Handler) CreatePosting(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaimsFromContext(r)
	if claims == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	var body api.CreatePostingRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	posting, err := h.postings.Create(claims.Email, service.NewPosting{
		Title:            body.Title,
		DepartmentId:     body.DepartmentId,
		Location:         body.Location,
		ClassificationId: body.ClassificationId,
		Level:            body.Level,
		AlternationType:  domain.ClassificationType(body.AlternationType),
		LanguageProfile:  domain.LanguageProfile(body.LanguageProfile),
		Criteria:         body.Criteria,
		Description:      body.Description,
		ContactEmail:     body.ContactEmail,
		ExpirationDate:   body.ExpirationDate,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, api.NewPostingResponse(posting, true))
}

// ListPostings returns publicly visible postings with optional filters.
func (h *Handler) ListPostings(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListingFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	postings, err := h.postings.PublicListings(filter)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.NewPostingListResponse(postings, false))
}

// GetPosting returns a single posting. What the caller sees depends on who
// they are: owners and admins get moderation metadata and non-public states.
func (h *Handler) GetPosting(w http.ResponseWriter, r *http.Request) {
	id, err := postingIdParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	caller := h.callerFromClaims(r)
	posting, err := h.postings.Posting(id, caller)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	includeModeration := caller != nil && (caller.Admin || service.NormalizeEmail(caller.Email) == posting.OwnerEmail)
	writeJSON(w, api.NewPostingResponse(posting, includeModeration))
}

// MyPostings lists the authenticated identity's postings, any status.
func (h *Handler) MyPostings(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaimsFromContext(r)
	if claims == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	postings, err := h.postings.OwnerListings(claims.Email)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.NewPostingListResponse(postings, true))
}

// RequestDeletion emails a deletion confirmation link to the posting owner.
func (h *Handler) RequestDeletion(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaimsFromContext(r)
	if claims == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	id, err := postingIdParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.postings.RequestDeletion(id, claims.Email); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.MessageResponse{Message: "Confirmation link sent. The posting stays up until you confirm"})
}

// ConfirmDeletion redeems a deletion token from the emailed link. No session
// is required: possession of the single-use token is the proof.
func (h *Handler) ConfirmDeletion(w http.ResponseWriter, r *http.Request) {
	tokenValue := chi.URLParam(r, "token")

	if err := h.postings.ConfirmDeletion(tokenValue); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.MessageResponse{Message: "Posting deleted"})
}

// callerFromClaims converts optional session claims into a caller identity
// for visibility decisions.
func (h *Handler) callerFromClaims(r *http.Request) *domain.User {
	claims := mw.GetClaimsFromContext(r)
	if claims == nil || !claims.Registered {
		return nil
	}
	return &domain.User{Id: claims.UserId, Email: claims.Email, Admin: claims.Admin}
}
