package shared

import (
	"context"
	"sync"
)

// DocumentKind identifies the type of an originating document that a ledger
// entry or transit record can point back to.
type DocumentKind string

const (
	DocumentKindPurchaseOrder  DocumentKind = "PURCHASE_ORDER"
	DocumentKindSalesOrder     DocumentKind = "SALES_ORDER"
	DocumentKindStockTransfer  DocumentKind = "STOCK_TRANSFER"
	DocumentKindGoodsReceipt   DocumentKind = "GOODS_RECEIPT"
	DocumentKindAdjustment     DocumentKind = "ADJUSTMENT"
	DocumentKindReturn         DocumentKind = "RETURN"
	DocumentKindInitialStock   DocumentKind = "INITIAL_STOCK"
	DocumentKindReservation    DocumentKind = "RESERVATION"
)

// IsValid returns true if the document kind is known
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindPurchaseOrder,
		DocumentKindSalesOrder,
		DocumentKindStockTransfer,
		DocumentKindGoodsReceipt,
		DocumentKindAdjustment,
		DocumentKindReturn,
		DocumentKindInitialStock,
		DocumentKindReservation:
		return true
	}
	return false
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// DocumentRef is a typed reference to an originating document. It replaces a
// dynamically dispatched polymorphic association: the ledger stores the pair
// for audit and traceability and never dereferences the document itself.
type DocumentRef struct {
	Kind DocumentKind `json:"kind"`
	ID   string       `json:"id"`
}

// NewDocumentRef creates a validated document reference
func NewDocumentRef(kind DocumentKind, id string) (DocumentRef, error) {
	if !kind.IsValid() {
		return DocumentRef{}, NewDomainError("INVALID_DOCUMENT_KIND", "Unknown document kind")
	}
	if id == "" {
		return DocumentRef{}, NewDomainError("INVALID_DOCUMENT_ID", "Document ID cannot be empty")
	}
	return DocumentRef{Kind: kind, ID: id}, nil
}

// IsZero returns true if the reference is unset
func (r DocumentRef) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// DocumentResolver looks up a document of one specific kind and reports
// whether it exists. Implementations live with the owning module.
type DocumentResolver func(ctx context.Context, id string) (bool, error)

// DocumentResolverRegistry maps document kinds to typed lookup functions.
// Callers that need to verify a reference register a resolver per kind instead
// of dispatching on an untyped type string.
type DocumentResolverRegistry struct {
	mu        sync.RWMutex
	resolvers map[DocumentKind]DocumentResolver
}

// NewDocumentResolverRegistry creates an empty registry
func NewDocumentResolverRegistry() *DocumentResolverRegistry {
	return &DocumentResolverRegistry{
		resolvers: make(map[DocumentKind]DocumentResolver),
	}
}

// Register installs a resolver for a document kind, replacing any previous one
func (r *DocumentResolverRegistry) Register(kind DocumentKind, resolver DocumentResolver) error {
	if !kind.IsValid() {
		return NewDomainError("INVALID_DOCUMENT_KIND", "Unknown document kind")
	}
	if resolver == nil {
		return NewDomainError("INVALID_RESOLVER", "Resolver cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[kind] = resolver
	return nil
}

// Resolve checks whether the referenced document exists. Kinds without a
// registered resolver are accepted as-is: the ledger only stores references.
func (r *DocumentResolverRegistry) Resolve(ctx context.Context, ref DocumentRef) (bool, error) {
	if ref.IsZero() {
		return false, NewDomainError("INVALID_DOCUMENT_REF", "Document reference is empty")
	}
	r.mu.RLock()
	resolver, ok := r.resolvers[ref.Kind]
	r.mu.RUnlock()
	if !ok {
		return true, nil
	}
	return resolver(ctx, ref.ID)
}
