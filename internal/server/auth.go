package server

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fenggwsx/StudyShelf/internal/auth"
	"github.com/fenggwsx/StudyShelf/internal/portal"
	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errEmailTaken         = errors.New("email already registered")
	errNameRequired       = errors.New("name is required")
	errAdminSignup        = errors.New("admin signup is restricted")
	errInvalidPayload     = errors.New("invalid auth payload")
	errUnauthorized       = errors.New("unauthorized")
	errSessionEnded       = errors.New("session ended")
	errAdminOnly          = errors.New("admin only")
)

func (a *App) handleAuth(ctx context.Context, session *clientSession, env protocol.Envelope) error {
	req, err := protocol.DecodePayload[protocol.AuthRequest](env.Payload)
	if err != nil {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, errInvalidPayload.Error())
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "login":
		return a.handleLogin(ctx, session, env.ID, req)
	case "signup":
		return a.handleSignup(ctx, session, env.ID, req)
	case "logout":
		return a.handleLogout(ctx, session, env)
	default:
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, "unsupported auth action")
	}
	return nil
}

func (a *App) handleLogin(ctx context.Context, session *clientSession, referenceID string, req protocol.AuthRequest) error {
	role := portal.RoleStudent
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := portal.ParseRole(req.Role)
		if !ok {
			a.reportAuthError(ctx, session, referenceID, errInvalidCredentials)
			return nil
		}
		role = parsed
	}

	account, ok := a.provider.Login(ctx, req.Email, req.Password, role)
	if !ok {
		log.Printf("login failed email=%s role=%s remote=%s", strings.TrimSpace(req.Email), role, session.remoteAddr())
		a.reportAuthError(ctx, session, referenceID, errInvalidCredentials)
		return nil
	}
	log.Printf("login success id=%s remote=%s", account.ID, session.remoteAddr())
	return a.issueToken(ctx, session, referenceID, account)
}

func (a *App) handleSignup(ctx context.Context, session *clientSession, referenceID string, req protocol.AuthRequest) error {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" {
		a.reportAuthError(ctx, session, referenceID, errNameRequired)
		return nil
	}
	if email == "" || req.Password == "" {
		a.reportAuthError(ctx, session, referenceID, errInvalidPayload)
		return nil
	}
	role := portal.RoleStudent
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := portal.ParseRole(req.Role)
		if !ok {
			a.reportAuthError(ctx, session, referenceID, errInvalidPayload)
			return nil
		}
		role = parsed
	}
	if role == portal.RoleAdmin {
		a.reportAuthError(ctx, session, referenceID, errAdminSignup)
		return nil
	}

	account, ok := a.provider.Signup(ctx, portal.SignupRequest{
		Name:     name,
		Email:    email,
		Password: req.Password,
		Role:     role,
		Branch:   strings.TrimSpace(req.Branch),
		Year:     strings.TrimSpace(req.Year),
	})
	if !ok {
		log.Printf("signup failed email=%s remote=%s", email, session.remoteAddr())
		a.reportAuthError(ctx, session, referenceID, errEmailTaken)
		return nil
	}
	log.Printf("signup success id=%s remote=%s", account.ID, session.remoteAddr())
	a.notifyCatalogChanged(protocol.ChangeUsers, "")
	return a.issueToken(ctx, session, referenceID, account)
}

func (a *App) handleLogout(ctx context.Context, session *clientSession, env protocol.Envelope) error {
	claims, err := a.claimsFromEnvelope(env)
	if err != nil {
		a.sendAck(ctx, session, env.ID, protocol.AckStatusError, errUnauthorized.Error())
		return nil
	}
	if current, ok := a.provider.Session(); ok && current.ID == claims.AccountID {
		a.provider.Logout(ctx)
		log.Printf("logout id=%s remote=%s", claims.AccountID, session.remoteAddr())
	}
	a.sendAck(ctx, session, env.ID, protocol.AckStatusOK, "")
	return nil
}

func (a *App) issueToken(ctx context.Context, session *clientSession, referenceID string, account portal.Account) error {
	token, expiresAt, err := auth.NewToken(a.cfg.JWT, account.ID, string(account.Role()))
	if err != nil {
		log.Printf("token issue: %v", err)
		a.sendAck(ctx, session, referenceID, protocol.AckStatusError, "token generation failed")
		return err
	}

	a.sendAck(ctx, session, referenceID, protocol.AckStatusOK, "")

	response := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.MessageTypeAuthResponse,
		Timestamp: time.Now(),
		Metadata:  map[string]interface{}{"reference_id": referenceID},
		Payload: protocol.AuthResponse{
			Token:     token,
			ExpiresAt: expiresAt.Unix(),
			Account:   account,
		},
	}
	return session.send(ctx, response)
}

func (a *App) reportAuthError(ctx context.Context, session *clientSession, referenceID string, err error) {
	reason := "authentication failed"
	switch {
	case errors.Is(err, errInvalidCredentials),
		errors.Is(err, errEmailTaken),
		errors.Is(err, errNameRequired),
		errors.Is(err, errAdminSignup),
		errors.Is(err, errInvalidPayload):
		reason = err.Error()
	}
	a.sendAck(ctx, session, referenceID, protocol.AckStatusError, reason)
}

func (a *App) claimsFromEnvelope(env protocol.Envelope) (*auth.Claims, error) {
	token := strings.TrimSpace(env.Token)
	if token == "" {
		return nil, errUnauthorized
	}
	return auth.ParseToken(a.cfg.JWT, token)
}

// requireSession resolves the signed-in account for env. The token must name
// the account that currently holds the portal session, so a login from
// another client ends this one.
func (a *App) requireSession(env protocol.Envelope) (portal.Account, error) {
	claims, err := a.claimsFromEnvelope(env)
	if err != nil {
		return portal.Account{}, errUnauthorized
	}
	current, ok := a.provider.Session()
	if !ok || current.ID != claims.AccountID {
		return portal.Account{}, errSessionEnded
	}
	return current, nil
}

func (a *App) requireAdmin(env protocol.Envelope) (portal.Account, error) {
	account, err := a.requireSession(env)
	if err != nil {
		return account, err
	}
	if !account.IsAdmin() {
		return account, errAdminOnly
	}
	return account, nil
}
