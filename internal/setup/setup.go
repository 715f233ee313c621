package setup

import (
	"context"
	"fmt"
	"strings"

	"github.com/waap-dev/waap/internal/captcha"
	"github.com/waap-dev/waap/internal/config"
	"github.com/waap-dev/waap/internal/email"
	"github.com/waap-dev/waap/internal/handler"
	"github.com/waap-dev/waap/internal/middleware"
	"github.com/waap-dev/waap/internal/service"
	"github.com/waap-dev/waap/internal/storage/pg"
	"github.com/waap-dev/waap/internal/utils/jwt"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Handler        *handler.Handler
	AuthMiddleware *middleware.Auth
	Sweeper        *service.Sweeper
	Jwt            jwt.JwtService
}

// linkBuilder turns raw token values into the URLs placed in emails.
type linkBuilder struct {
	baseURL string
}

func (l linkBuilder) LoginLink(tokenValue string) string {
	return fmt.Sprintf("%s/v1/auth/verify/%s", l.baseURL, tokenValue)
}

func (l linkBuilder) DeleteLink(tokenValue string) string {
	return fmt.Sprintf("%s/v1/postings/delete_confirm/%s", l.baseURL, tokenValue)
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mailer := email.New(&cfg.Private.Email)
	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	links := linkBuilder{baseURL: strings.TrimRight(cfg.Private.BaseURL, "/")}

	var verifier captcha.Verifier
	if cfg.Public.CaptchaOffline {
		verifier = captcha.AlwaysValid{}
	} else {
		verifier = captcha.NewRecaptcha(cfg.Private.CaptchaSecret)
	}

	tokens := service.NewTokens(storage)
	users := service.NewUsers(storage, cfg.Public.AllowedEmailDomains)
	auth := service.NewAuth(tokens, users, mailer, jwtService, &cfg.Public, links)
	postings := service.NewPostings(storage, tokens, mailer, &cfg.Public, links)
	contact := service.NewContact(storage, mailer, verifier, &cfg.Public)
	sweeper := service.NewSweeper(storage, tokens)

	h := handler.New(auth, users, postings, contact, cfg, storage)
	authMw := middleware.NewAuth(jwtService, cfg.Public.SecureCookies)

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Handler:        h,
		AuthMiddleware: authMw,
		Sweeper:        sweeper,
		Jwt:            jwtService,
	}, nil
}
