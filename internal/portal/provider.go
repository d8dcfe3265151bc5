// Package portal holds the study-material catalog, the account catalog and the
// single session that operates on them.
package portal

import (
	"context"
	"log"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fenggwsx/StudyShelf/internal/snapshot"
)

// Snapshot keys.
const (
	KeyAccounts  = "abes_users"
	KeyMaterials = "abes_materials"
	KeySession   = "abes_current_user"
	KeyLikes     = "abes_liked_ids"
)

// Provider owns the live accounts, materials, session and like-set. Every
// operation runs under one lock and writes the snapshots it touched before
// returning.
type Provider struct {
	mu      sync.Mutex
	adapter *snapshot.Adapter
	now     func() time.Time
	newID   func() string

	accounts  []Account
	materials []Material
	sessionID string
	liked     map[string]struct{}
}

// Option customizes a Provider.
type Option func(*Provider)

// WithClock overrides the timestamp source used for new materials.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides the identifier source for accounts and materials.
func WithIDGenerator(newID func() string) Option {
	return func(p *Provider) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// New rehydrates a Provider from the adapter, falling back to seed data for
// the catalogs and to an empty session and like-set.
func New(ctx context.Context, adapter *snapshot.Adapter, opts ...Option) *Provider {
	p := &Provider{
		adapter: adapter,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		liked:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.accounts = snapshot.Load(ctx, adapter, KeyAccounts, SeedAccounts())
	if p.accounts == nil {
		p.accounts = []Account{}
	}
	p.materials = snapshot.Load(ctx, adapter, KeyMaterials, SeedMaterials(p.now()))
	if p.materials == nil {
		p.materials = []Material{}
	}

	if saved := snapshot.Load[*Account](ctx, adapter, KeySession, nil); saved != nil {
		if p.accountIndex(saved.ID) >= 0 {
			p.sessionID = saved.ID
		} else {
			log.Printf("session restore skipped id=%s reason=account missing", saved.ID)
			_ = adapter.Remove(ctx, KeySession)
		}
	}

	for _, id := range snapshot.Load(ctx, adapter, KeyLikes, []string(nil)) {
		p.liked[id] = struct{}{}
	}
	return p
}

// Accounts returns a copy of the account catalog.
func (p *Provider) Accounts() []Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.accounts)
}

// Account looks up an account by id.
func (p *Provider) Account(id string) (Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx := p.accountIndex(id); idx >= 0 {
		return p.accounts[idx], true
	}
	return Account{}, false
}

// Materials returns a copy of the material catalog, most recent first.
func (p *Provider) Materials() []Material {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.materials)
}

// Material looks up a material by id.
func (p *Provider) Material(id string) (Material, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx := p.materialIndex(id); idx >= 0 {
		return p.materials[idx], true
	}
	return Material{}, false
}

// Session returns the authenticated account, if any.
func (p *Provider) Session() (Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionAccount()
}

// LikedIDs returns the like-set as a sorted slice.
func (p *Provider) LikedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.likedList()
}

func (p *Provider) sessionAccount() (Account, bool) {
	if p.sessionID == "" {
		return Account{}, false
	}
	if idx := p.accountIndex(p.sessionID); idx >= 0 {
		return p.accounts[idx], true
	}
	return Account{}, false
}

func (p *Provider) accountIndex(id string) int {
	return slices.IndexFunc(p.accounts, func(a Account) bool { return a.ID == id })
}

func (p *Provider) materialIndex(id string) int {
	return slices.IndexFunc(p.materials, func(m Material) bool { return m.ID == id })
}

func (p *Provider) likedList() []string {
	ids := make([]string, 0, len(p.liked))
	for id := range p.liked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Persistence failures are logged by the adapter and do not undo the in-memory change.

func (p *Provider) persistAccounts(ctx context.Context) {
	_ = p.adapter.Save(ctx, KeyAccounts, p.accounts)
}

func (p *Provider) persistMaterials(ctx context.Context) {
	_ = p.adapter.Save(ctx, KeyMaterials, p.materials)
}

func (p *Provider) persistSession(ctx context.Context) {
	account, ok := p.sessionAccount()
	if !ok {
		_ = p.adapter.Remove(ctx, KeySession)
		return
	}
	_ = p.adapter.Save(ctx, KeySession, account)
}

func (p *Provider) persistLikes(ctx context.Context) {
	_ = p.adapter.Save(ctx, KeyLikes, p.likedList())
}
