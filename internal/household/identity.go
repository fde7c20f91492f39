// Package household covers who is using the ledger: the signed-in identity,
// the display users of the household and their preferences. None of it
// affects ledger correctness.
package household

import (
	"context"
	"errors"
	"sync"
)

var ErrNoIdentity = errors.New("no identity configured")

// Identity is the account returned by the identity provider.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Provider is the identity capability. OnAuthChange calls fn with the new
// identity, or nil after sign-out, and returns a function that unsubscribes.
type Provider interface {
	CurrentUser() (Identity, bool)
	SignIn(ctx context.Context) (Identity, error)
	SignOut(ctx context.Context) error
	OnAuthChange(fn func(*Identity)) (unsubscribe func())
}

// StaticProvider signs in a fixed identity. It is used by the workers and
// in tests.
type StaticProvider struct {
	identity Identity

	mu       sync.Mutex
	signedIn bool
	nextSub  int
	subs     map[int]func(*Identity)
}

var _ Provider = (*StaticProvider)(nil)

func NewStaticProvider(identity Identity) *StaticProvider {
	return &StaticProvider{identity: identity, subs: make(map[int]func(*Identity))}
}

func (p *StaticProvider) CurrentUser() (Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.signedIn {
		return Identity{}, false
	}
	return p.identity, true
}

func (p *StaticProvider) SignIn(ctx context.Context) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	if p.identity.ID == "" {
		return Identity{}, ErrNoIdentity
	}
	p.mu.Lock()
	p.signedIn = true
	id := p.identity
	subs := p.subscribers()
	p.mu.Unlock()

	for _, fn := range subs {
		fn(&id)
	}
	return id, nil
}

func (p *StaticProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	if !p.signedIn {
		p.mu.Unlock()
		return nil
	}
	p.signedIn = false
	subs := p.subscribers()
	p.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
	return nil
}

func (p *StaticProvider) OnAuthChange(fn func(*Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// subscribers snapshots the callbacks; p.mu must be held.
func (p *StaticProvider) subscribers() []func(*Identity) {
	out := make([]func(*Identity), 0, len(p.subs))
	for _, fn := range p.subs {
		out = append(out, fn)
	}
	return out
}

// Namespace is the store namespace of the signed-in identity, or "" when
// nobody is signed in.
func Namespace(p Provider) string {
	id, ok := p.CurrentUser()
	if !ok {
		return ""
	}
	return id.ID
}
