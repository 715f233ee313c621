// Package captcha verifies challenge responses for anonymous-facing forms.
package captcha

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/waap-dev/waap/internal/logger"
)

// Verifier is the oracle consulted before a contact message is relayed.
type Verifier interface {
	Verify(response string) (bool, error)
}

// AlwaysValid is used in restricted/offline configurations where the hosted
// verification endpoint is unreachable.
type AlwaysValid struct{}

func (AlwaysValid) Verify(string) (bool, error) { return true, nil }

const defaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Recaptcha verifies responses against the hosted reCAPTCHA endpoint.
type Recaptcha struct {
	secret    string
	verifyURL string
	client    *http.Client
}

func NewRecaptcha(secret string) *Recaptcha {
	return &Recaptcha{
		secret:    secret,
		verifyURL: defaultVerifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Recaptcha) Verify(response string) (bool, error) {
	if response == "" {
		return false, nil
	}

	resp, err := r.client.PostForm(r.verifyURL, url.Values{
		"secret":   {r.secret},
		"response": {response},
	})
	if err != nil {
		logger.Log.Error("captcha verification request failed", "error", err)
		return false, err
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Log.Error("failed to decode captcha verification response", "error", err)
		return false, err
	}
	return result.Success, nil
}
