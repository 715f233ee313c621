package handler

import (
	"net/http"

	"github.com/waap-dev/waap/internal/api"
	"github.com/waap-dev/waap/internal/domain"
	mw "github.com/waap-dev/waap/internal/middleware"
	"github.com/waap-dev/waap/internal/utils"
)

// ApprovePosting makes a posting publicly visible.
func (h *Handler) ApprovePosting(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, domain.ModerationApproved)
}

// FlagPosting pulls a posting from public view for review.
func (h *Handler) FlagPosting(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, domain.ModerationFlagged)
}

// RemovePosting retires a posting permanently. Removal is terminal.
func (h *Handler) RemovePosting(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, domain.ModerationRemoved)
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request, newStatus domain.ModerationStatus) {
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

	// Notes are optional; an empty body is fine.
	var body api.ModerateRequest
	if r.ContentLength > 0 {
		if err := utils.Decode(r.Body, &body); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
	}

	admin := &domain.User{Id: claims.UserId, Email: claims.Email, Admin: claims.Admin}
	if err := h.postings.Moderate(id, admin, newStatus, body.Notes); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.MessageResponse{Message: "Moderation status updated"})
}
