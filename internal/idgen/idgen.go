// Package idgen mints the synthetic identifiers of the invoice graph.
package idgen

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const (
	CustomerPrefix = "CUST_"
	ProductPrefix  = "PROD_"
	InvoicePrefix  = "INV_"
)

// Generator returns a new unique suffix on every call.
type Generator func() string

// UUID generates random v4 uuids.
func UUID() string {
	return uuid.NewString()
}

// Sequence returns a Generator producing "1", "2", ... It is safe for
// concurrent use and gives stable ids in tests.
func Sequence() Generator {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%d", n)
	}
}

// IDs mints section-prefixed ids from one Generator.
type IDs struct {
	next Generator
}

func New(next Generator) *IDs {
	if next == nil {
		next = UUID
	}
	return &IDs{next: next}
}

func (g *IDs) Customer() string { return CustomerPrefix + g.next() }
func (g *IDs) Product() string  { return ProductPrefix + g.next() }
func (g *IDs) Invoice() string  { return InvoicePrefix + g.next() }
