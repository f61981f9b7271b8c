package session

import (
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

// User is the signed-in identity the engines act on behalf of.
type User struct {
	ID    string
	Email string
}

// Gate exposes the current identity. All mutating engine operations consult
// it before acting; a nil user means the mutation is refused locally.
type Gate interface {
	CurrentUser() *User
}

// RequireAuth returns the current user or domain.ErrAuthRequired. It is
// synchronous and performs no network activity.
func RequireAuth(g Gate) (*User, error) {
	u := g.CurrentUser()
	if u == nil {
		return nil, domain.ErrAuthRequired
	}
	return u, nil
}

// MemoryGate holds the identity for the lifetime of one client process.
// Lifecycle is tied to sign-in/sign-out, not package load.
type MemoryGate struct {
	mu   sync.RWMutex
	user *User
}

func NewMemoryGate() *MemoryGate {
	return &MemoryGate{}
}

func (g *MemoryGate) CurrentUser() *User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user
}

func (g *MemoryGate) SignIn(u User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.user = &u
}

func (g *MemoryGate) SignOut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.user = nil
}

// TokenGate derives the identity from a bearer token issued by the auth
// subsystem. An invalid or expired token reads as signed-out.
type TokenGate struct {
	secret []byte

	mu    sync.RWMutex
	token string
	user  *User
}

func NewTokenGate(secret []byte) *TokenGate {
	return &TokenGate{secret: secret}
}

func (g *TokenGate) CurrentUser() *User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user
}

// Token returns the raw bearer token for the remote store client to attach.
func (g *TokenGate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// SetToken parses and installs a session token. A bad token signs the gate
// out rather than erroring the caller; the engines then short-circuit with
// ErrAuthRequired.
func (g *TokenGate) SetToken(token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if token == "" {
		g.token = ""
		g.user = nil
		return nil
	}

	u, err := ParseUser(token, g.secret)
	if err != nil {
		g.token = ""
		g.user = nil
		return err
	}
	g.token = token
	g.user = u
	return nil
}

// Claims is the shape both the gate and the server auth middleware agree on.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ParseUser validates an HS256 session token and extracts the identity.
func ParseUser(token string, secret []byte) (*User, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid session token")
	}

	return &User{ID: claims.Subject, Email: claims.Email}, nil
}
