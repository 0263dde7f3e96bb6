// Package testdata generates shoppers, payment cards and order fixtures for
// storefront checks.
package testdata

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/adyen/shopcheck/internal/models"
	"github.com/google/uuid"
)

// CardKind selects a test card by the outcome it produces
type CardKind string

// Card kinds
const (
	CardVisaSuccess CardKind = "visa"
	CardRefused     CardKind = "refused"
)

// Card holds the fields typed into the checkout card form
type Card struct {
	Number string
	Expiry string
	CVC    string
	Holder string
}

// Adyen test cards used in the storefront's test environment
var cards = map[CardKind]Card{
	CardVisaSuccess: {Number: "4111111111111111", Expiry: "03/30", CVC: "737", Holder: "Test Shopper"},
	CardRefused:     {Number: "4111111111110002", Expiry: "03/30", CVC: "737", Holder: "Test Shopper"},
}

// Shopper is a generated customer identity
type Shopper struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Ken", "Radia", "Donald"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Thompson", "Perlman", "Knuth"}
)

// Generator produces deterministic test data for a seed. It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	seq int
}

// NewGenerator creates a generator; the same seed yields the same sequence
func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// UUID returns the next generated UUID
func (g *Generator) UUID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.uuidLocked()
}

func (g *Generator) uuidLocked() uuid.UUID {
	id, err := uuid.NewRandomFromReader(g.rnd)
	if err != nil {
		// rand.Rand reads never fail
		panic(err)
	}
	return id
}

// Shopper returns a new shopper with a unique email address
func (g *Generator) Shopper() Shopper {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.uuidLocked()
	first := firstNames[g.rnd.Intn(len(firstNames))]
	last := lastNames[g.rnd.Intn(len(lastNames))]

	return Shopper{
		ID:        id.String(),
		FirstName: first,
		LastName:  last,
		Email:     fmt.Sprintf("%s.%s+%s@example.com", strings.ToLower(first), strings.ToLower(last), id.String()[:8]),
	}
}

// Reference returns a unique merchant reference such as ORDER-0001-1a2b3c4d
func (g *Generator) Reference(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if prefix == "" {
		prefix = "ORDER"
	}
	g.seq++
	return fmt.Sprintf("%s-%04d-%s", prefix, g.seq, g.uuidLocked().String()[:8])
}

// Order returns a pending order fixture for product
func (g *Generator) Order(product models.Product) models.Order {
	now := time.Now().UTC()
	return models.Order{
		ID:          g.UUID().String(),
		Reference:   g.Reference("ORDER"),
		Amount:      product.PriceCents,
		Currency:    product.Currency,
		Status:      models.OrderStatusPending,
		ProductName: product.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// LookupCard returns the test card for kind
func LookupCard(kind CardKind) (Card, error) {
	card, ok := cards[kind]
	if !ok {
		return Card{}, fmt.Errorf("unknown card kind %q", kind)
	}
	return card, nil
}

// MustCard is like LookupCard but panics for an unknown kind
func MustCard(kind CardKind) Card {
	card, err := LookupCard(kind)
	if err != nil {
		panic(err)
	}
	return card
}
