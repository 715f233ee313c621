package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/waap-dev/waap/internal/api"
	"github.com/waap-dev/waap/internal/domain"
	mw "github.com/waap-dev/waap/internal/middleware"
	"github.com/waap-dev/waap/internal/utils"
)

func (h *Handler) setSessionCookie(w http.ResponseWriter, accessToken string, maxAge int) {
	cookie := &http.Cookie{
		Path:     "/",
		Name:     "accessToken",
		Value:    accessToken,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}

// RequestLogin issues a login link for the given email. The response is the
// same whether or not the email is known, so the endpoint cannot be used to
// probe for accounts.
func (h *Handler) RequestLogin(w http.ResponseWriter, r *http.Request) {
	var body api.LoginRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.auth.RequestLogin(body.Email); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.MessageResponse{Message: "If the address is eligible, a sign-in link is on its way"})
}

// VerifyLogin redeems the single-use token from the emailed link.
func (h *Handler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	tokenValue := chi.URLParam(r, "token")

	result, err := h.auth.VerifyLogin(tokenValue)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.setSessionCookie(w, result.SessionToken, int(h.cfg.JwtTTL().Seconds()))

	resp := api.VerifyResponse{
		AccessToken:       result.SessionToken,
		NeedsRegistration: result.NeedsRegistration,
	}
	if result.NeedsRegistration {
		resp.Message = "Email verified. Please complete your profile"
	} else {
		resp.Message = "You are signed in"
		resp.User = api.NewUserResponse(result.User)
	}
	writeJSON(w, resp)
}

// CompleteRegistration persists the profile for a provisional session. The
// verified email comes from the session claims, never from the body.
func (h *Handler) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaimsFromContext(r)
	if claims == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}
	if claims.Registered {
		http.Error(w, "Registration already completed", http.StatusConflict)
		return
	}

	var body api.CompleteRegistrationRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	sessionToken, user, err := h.auth.CompleteRegistration(claims.Email, domain.ProfileUpdate{
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

	h.setSessionCookie(w, sessionToken, int(h.cfg.JwtTTL().Seconds()))

	writeJSONStatus(w, http.StatusCreated, api.VerifyResponse{
		Message:     "Welcome",
		AccessToken: sessionToken,
		User:        api.NewUserResponse(user),
	})
}

// AdminLogin authenticates an administrator account by password.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var body api.AdminLoginRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	accessToken, err := h.auth.AdminLogin(body.Email, body.Password)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.setSessionCookie(w, accessToken, int(h.cfg.JwtTTL().Seconds()))
	writeJSON(w, api.LoginResponse{Message: "You logged in", AccessToken: accessToken})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusOK)
}
