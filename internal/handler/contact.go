package handler

import (
	"net/http"

	"github.com/waap-dev/waap/internal/api"
	"github.com/waap-dev/waap/internal/service"
	"github.com/waap-dev/waap/internal/utils"
)

// ContactOwner relays a visitor message to the posting's contact address.
// Anonymous, captcha-gated; the contact address itself is never exposed.
func (h *Handler) ContactOwner(w http.ResponseWriter, r *http.Request) {
	id, err := postingIdParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.ContactRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err = h.contact.Send(service.NewContactMessage{
		PostingId:       id,
		SenderName:      body.SenderName,
		SenderEmail:     body.SenderEmail,
		Message:         body.Message,
		CaptchaResponse: body.CaptchaResponse,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.MessageResponse{Message: "Message sent"})
}
