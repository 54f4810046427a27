package sequence

import (
	"fmt"
	"sync"
	"time"

	"github.com/erp/stockcore/internal/domain/shared"
)

// DocumentKindPrefix names the prefix used for one kind of reference code
type DocumentKindPrefix struct {
	Kind   shared.DocumentKind
	Prefix string
}

// Registry maps document kinds to reference code prefixes. It replaces a
// global switch over entity types: modules register their own kinds and the
// generator stays ignorant of what the codes are for.
type Registry struct {
	mu       sync.RWMutex
	prefixes map[shared.DocumentKind]string
}

// NewRegistry creates an empty prefix registry
func NewRegistry() *Registry {
	return &Registry{prefixes: make(map[shared.DocumentKind]string)}
}

// NewDefaultRegistry creates a registry with the kinds this core issues codes for
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(shared.DocumentKindStockTransfer, "TRF")
	r.MustRegister(shared.DocumentKindGoodsReceipt, "GRN")
	r.MustRegister(shared.DocumentKindAdjustment, "ADJ")
	r.MustRegister(shared.DocumentKindReservation, "RSV")
	return r
}

// Register associates a kind with a prefix
func (r *Registry) Register(kind shared.DocumentKind, prefix string) error {
	if !kind.IsValid() {
		return shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown document kind")
	}
	if prefix == "" {
		return shared.NewDomainError("INVALID_PREFIX", "Prefix cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.prefixes[kind]; exists {
		return shared.NewDomainError("DUPLICATE_PREFIX", "A prefix is already registered for this kind")
	}
	r.prefixes[kind] = prefix
	return nil
}

// MustRegister registers a prefix and panics on error. For static wiring.
func (r *Registry) MustRegister(kind shared.DocumentKind, prefix string) {
	if err := r.Register(kind, prefix); err != nil {
		panic(err)
	}
}

// PrefixFor returns the prefix registered for a kind
func (r *Registry) PrefixFor(kind shared.DocumentKind) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefix, ok := r.prefixes[kind]
	if !ok {
		return "", shared.NewDomainError("UNREGISTERED_KIND", "No prefix registered for document kind")
	}
	return prefix, nil
}

// DocumentSequence is the persistent counter behind one (prefix, scope)
// series of reference codes. The row is read and advanced under an exclusive
// lock so two concurrent callers can never observe the same last number.
type DocumentSequence struct {
	shared.BaseEntity
	Prefix     string `gorm:"type:varchar(10);not null;uniqueIndex:idx_document_sequences_scope,priority:1"`
	ScopeKey   string `gorm:"type:varchar(20);not null;uniqueIndex:idx_document_sequences_scope,priority:2"`
	LastNumber int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentSequence) TableName() string {
	return "document_sequences"
}

// NewDocumentSequence creates a fresh counter for a (prefix, scope) pair
func NewDocumentSequence(prefix, scopeKey string) (*DocumentSequence, error) {
	if prefix == "" {
		return nil, shared.NewDomainError("INVALID_PREFIX", "Prefix cannot be empty")
	}
	if scopeKey == "" {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Scope key cannot be empty")
	}
	return &DocumentSequence{
		BaseEntity: shared.NewBaseEntity(),
		Prefix:     prefix,
		ScopeKey:   scopeKey,
		LastNumber: 0,
	}, nil
}

// Advance increments the counter and returns the formatted reference code
func (s *DocumentSequence) Advance() string {
	s.LastNumber++
	s.Touch()
	return FormatCode(s.Prefix, s.ScopeKey, s.LastNumber)
}

// FormatCode renders a reference code such as TRF-20250101-0007
func FormatCode(prefix, scopeKey string, number int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, scopeKey, number)
}

// DateScopeKey renders the daily scope key for a timestamp
func DateScopeKey(t time.Time) string {
	return t.Format("20060102")
}
