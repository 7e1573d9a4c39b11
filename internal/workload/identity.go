package workload

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/imamik/k8zdb/internal/util/naming"
)

// Identity is the short token that names every resource of one workload.
// Once assigned to a record it never changes.
type Identity string

func (id Identity) String() string { return string(id) }

// Names returns the resource names derived from the identity for a kind.
func (id Identity) Names(info KindInfo) Names {
	t := string(id)
	p := info.Prefix
	return Names{
		Base:        naming.Base(p, t),
		StatefulSet: naming.StatefulSet(p, t),
		Secret:      naming.Secret(p, t),
		Service:     naming.Service(p, t),
		Pod:         naming.Pod(p, t),
		Claim:       naming.Claim(p, t),
	}
}

// Names are the cluster resource names of one workload.
type Names struct {
	Base        string
	StatefulSet string
	Secret      string
	Service     string
	Pod         string
	Claim       string
}

// Catalog answers whether an identity is already taken.
type Catalog interface {
	Exists(ctx context.Context, id Identity) (bool, error)
}

// Identity generation defaults.
const (
	DefaultIdentityLength      = 8
	DefaultIdentityMaxAttempts = 10
)

// IdentityGenerator produces unused identities.
type IdentityGenerator struct {
	catalog     Catalog
	length      int
	maxAttempts int
	newToken    func() string
}

// GeneratorOption configures an IdentityGenerator.
type GeneratorOption func(*IdentityGenerator)

// WithLength sets the token length in hex characters (1-32).
func WithLength(n int) GeneratorOption {
	return func(g *IdentityGenerator) {
		if n > 0 && n <= 32 {
			g.length = n
		}
	}
}

// WithMaxAttempts sets how many candidates are tried before giving up.
func WithMaxAttempts(n int) GeneratorOption {
	return func(g *IdentityGenerator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithTokenSource replaces the random source. Intended for tests.
func WithTokenSource(fn func() string) GeneratorOption {
	return func(g *IdentityGenerator) {
		g.newToken = fn
	}
}

// NewIdentityGenerator creates a generator that checks candidates against catalog.
func NewIdentityGenerator(catalog Catalog, opts ...GeneratorOption) *IdentityGenerator {
	g := &IdentityGenerator{
		catalog:     catalog,
		length:      DefaultIdentityLength,
		maxAttempts: DefaultIdentityMaxAttempts,
		newToken: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns an identity not present in the catalog.
func (g *IdentityGenerator) Next(ctx context.Context) (Identity, error) {
	for range g.maxAttempts {
		token := g.newToken()
		if len(token) > g.length {
			token = token[:g.length]
		}
		id := Identity(strings.ToLower(token))

		taken, err := g.catalog.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check identity %s: %w", id, err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIdentityExhausted, g.maxAttempts)
}
