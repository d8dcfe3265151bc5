package portal

import (
	"context"
	"log"
	"slices"
	"strings"
	"unicode/utf8"
)

const minPasswordLength = 3

// loginMatrix lists which requested role each stored role may sign in as.
var loginMatrix = map[Role]map[Role]bool{
	RoleStudent: {RoleStudent: true, RoleAdmin: false},
	RoleAdmin:   {RoleStudent: true, RoleAdmin: true},
}

// SignupRequest carries the fields of a self-registration.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
	Role     Role
	Branch   string
	Year     string
}

// NewAccount carries the fields of an account created by an administrator.
type NewAccount struct {
	Name   string
	Email  string
	Role   Role
	Branch string
	Year   string
}

// Login authenticates the account registered under email. Only the password
// length is checked. Unknown emails, short passwords and role mismatches all
// report false.
func (p *Provider) Login(ctx context.Context, email, password string, requested Role) (Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.emailIndex(email)
	if idx < 0 {
		return Account{}, false
	}
	if utf8.RuneCountInString(strings.TrimSpace(password)) < minPasswordLength {
		return Account{}, false
	}
	account := p.accounts[idx]
	if !loginMatrix[account.Role()][requested] {
		return Account{}, false
	}

	p.sessionID = account.ID
	p.persistSession(ctx)
	log.Printf("login success id=%s role=%s requested=%s", account.ID, account.Role(), requested)
	return account, true
}

// Signup registers a new account and signs it in. It reports false when the
// email is already registered. The password is not stored.
func (p *Provider) Signup(ctx context.Context, req SignupRequest) (Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.createAccount(ctx, NewAccount{
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Branch: req.Branch,
		Year:   req.Year,
	})
	if !ok {
		return Account{}, false
	}
	p.sessionID = account.ID
	p.persistSession(ctx)
	return account, true
}

// AdminAddUser registers a new account without touching the session.
func (p *Provider) AdminAddUser(ctx context.Context, req NewAccount) (Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createAccount(ctx, req)
}

// Logout clears the session and deletes the like-set.
func (p *Provider) Logout(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sessionID = ""
	p.liked = make(map[string]struct{})
	_ = p.adapter.Remove(ctx, KeySession)
	_ = p.adapter.Remove(ctx, KeyLikes)
}

// DeleteUser removes an account. Deleting the signed-in account is ignored.
// Materials uploaded by the account are left in place.
func (p *Provider) DeleteUser(ctx context.Context, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sessionID != "" && p.sessionID == id {
		return
	}
	idx := p.accountIndex(id)
	if idx < 0 {
		return
	}
	p.accounts = slices.Delete(p.accounts, idx, idx+1)
	p.persistAccounts(ctx)
}

// PromoteToAdmin turns the account into an administrator. Student fields are dropped.
func (p *Provider) PromoteToAdmin(ctx context.Context, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.accountIndex(id)
	if idx < 0 {
		return
	}
	p.accounts[idx].Profile = AdminProfile{}
	p.persistAccounts(ctx)
	if p.sessionID == id {
		p.persistSession(ctx)
	}
}

func (p *Provider) createAccount(ctx context.Context, req NewAccount) (Account, bool) {
	if p.emailIndex(req.Email) >= 0 {
		return Account{}, false
	}
	account := Account{
		ID:      p.newID(),
		Name:    req.Name,
		Email:   req.Email,
		Avatar:  avatarURL(req.Name),
		Profile: newProfile(req.Role, req.Branch, req.Year),
	}
	p.accounts = append(p.accounts, account)
	p.persistAccounts(ctx)
	log.Printf("account created id=%s role=%s", account.ID, account.Role())
	return account, true
}

func (p *Provider) emailIndex(email string) int {
	target := normalizeEmail(email)
	return slices.IndexFunc(p.accounts, func(a Account) bool {
		return strings.ToLower(a.Email) == target
	})
}
