package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	inventoryapp "github.com/erp/stockcore/internal/application/inventory"
	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/erp/stockcore/internal/domain/sequence"
	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/erp/stockcore/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory implementation of every stock repository. A
// single mutex serializes scope executions, which stands in for the row locks
// the real persistence layer takes: two concurrent workflows never interleave
// inside their transactions.
type MemoryStore struct {
	mu sync.Mutex

	stocks     map[stockKey]*inventory.ProductStock
	movements  []*inventory.StockMovement
	transits   map[uuid.UUID]*inventory.InventoryTransit
	warehouses map[uuid.UUID]*inventory.Warehouse
	transfers  map[uuid.UUID]*transfer.StockTransfer
	sequences  map[sequenceKey]*sequence.DocumentSequence
}

type stockKey struct {
	productID uuid.UUID
	branchID  uuid.UUID
}

type sequenceKey struct {
	prefix   string
	scopeKey string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stocks:     make(map[stockKey]*inventory.ProductStock),
		transits:   make(map[uuid.UUID]*inventory.InventoryTransit),
		warehouses: make(map[uuid.UUID]*inventory.Warehouse),
		transfers:  make(map[uuid.UUID]*transfer.StockTransfer),
		sequences:  make(map[sequenceKey]*sequence.DocumentSequence),
	}
}

// AddWarehouse registers a warehouse owned by the given branch and returns it
func (s *MemoryStore) AddWarehouse(branchID uuid.UUID, code string) *inventory.Warehouse {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &inventory.Warehouse{
		BranchID: branchID,
		Code:     code,
		Name:     "Warehouse " + code,
	}
	w.ID = uuid.New()
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	s.warehouses[w.ID] = w
	return w
}

// MovementCount returns the number of ledger entries recorded
func (s *MemoryStore) MovementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

// Scope returns a TransactionScope over this store. Execute serializes on the
// store mutex so concurrent callers behave like contending transactions.
func (s *MemoryStore) Scope() inventoryapp.TransactionScope {
	return &memoryScope{store: s}
}

type memoryScope struct {
	store *MemoryStore
}

func (sc *memoryScope) Execute(_ context.Context, fn func(repos inventoryapp.TransactionalRepositories) error) error {
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(&memoryRepos{store: sc.store})
}

// Repos returns the repositories without transaction serialization, for
// direct seeding and read-only assertions in tests.
func (s *MemoryStore) Repos() inventoryapp.TransactionalRepositories {
	return &memoryRepos{store: s}
}

type memoryRepos struct {
	store *MemoryStore
}

func (r *memoryRepos) ProductStocks() inventory.ProductStockRepository { return &memStockRepo{r.store} }
func (r *memoryRepos) Movements() inventory.StockMovementRepository   { return &memMovementRepo{r.store} }
func (r *memoryRepos) Transits() inventory.TransitRepository          { return &memTransitRepo{r.store} }
func (r *memoryRepos) Warehouses() inventory.WarehouseRepository      { return &memWarehouseRepo{r.store} }
func (r *memoryRepos) Transfers() transfer.Repository                 { return &memTransferRepo{r.store} }
func (r *memoryRepos) Sequences() sequence.Repository                 { return &memSequenceRepo{r.store} }

// ===================== ProductStockRepository =====================

type memStockRepo struct{ store *MemoryStore }

func (r *memStockRepo) FindByProductAndBranch(_ context.Context, productID, branchID uuid.UUID) (*inventory.ProductStock, error) {
	if s, ok := r.store.stocks[stockKey{productID, branchID}]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memStockRepo) FindForUpdate(ctx context.Context, productID, branchID uuid.UUID) (*inventory.ProductStock, error) {
	return r.FindByProductAndBranch(ctx, productID, branchID)
}

func (r *memStockRepo) GetOrCreate(_ context.Context, productID, branchID uuid.UUID) (*inventory.ProductStock, error) {
	key := stockKey{productID, branchID}
	if s, ok := r.store.stocks[key]; ok {
		return s, nil
	}
	s, err := inventory.NewProductStock(productID, branchID)
	if err != nil {
		return nil, err
	}
	s.ID = uuid.New()
	r.store.stocks[key] = s
	return s, nil
}

func (r *memStockRepo) Save(_ context.Context, stock *inventory.ProductStock) error {
	key := stockKey{stock.ProductID, stock.BranchID}
	existing, ok := r.store.stocks[key]
	if !ok {
		return shared.ErrNotFound
	}
	// Mirror the persistence contract: Save never writes the cached counter
	existing.ReservedQuantity = stock.ReservedQuantity
	existing.AllowNegative = stock.AllowNegative
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *memStockRepo) SyncQuantity(_ context.Context, id uuid.UUID, stockAfter decimal.Decimal) error {
	for _, s := range r.store.stocks {
		if s.ID == id {
			s.StockQuantity = stockAfter
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.ErrNotFound
}

// ===================== StockMovementRepository =====================

type memMovementRepo struct{ store *MemoryStore }

func (r *memMovementRepo) Append(_ context.Context, movement *inventory.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	r.store.movements = append(r.store.movements, movement)
	return nil
}

func (r *memMovementRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	for _, m := range r.store.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memMovementRepo) matchBranch(m *inventory.StockMovement, productID, branchID uuid.UUID) bool {
	if m.ProductID != productID {
		return false
	}
	w, ok := r.store.warehouses[m.WarehouseID]
	return ok && w.BranchID == branchID
}

func (r *memMovementRepo) FindByProductAndBranch(_ context.Context, productID, branchID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var result []inventory.StockMovement
	for _, m := range r.store.movements {
		if !r.matchBranch(m, productID, branchID) {
			continue
		}
		if mt, ok := filter.Filters["movement_type"].(string); ok && string(m.MovementType) != mt {
			continue
		}
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OccurredAt.After(result[j].OccurredAt)
	})
	return paginate(result, filter), nil
}

func (r *memMovementRepo) CountByProductAndBranch(_ context.Context, productID, branchID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	for _, m := range r.store.movements {
		if !r.matchBranch(m, productID, branchID) {
			continue
		}
		if mt, ok := filter.Filters["movement_type"].(string); ok && string(m.MovementType) != mt {
			continue
		}
		count++
	}
	return count, nil
}

func (r *memMovementRepo) SumByProductAndBranch(_ context.Context, productID, branchID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.store.movements {
		if r.matchBranch(m, productID, branchID) {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

func (r *memMovementRepo) SumByProductAndWarehouse(_ context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.store.movements {
		if m.ProductID == productID && m.WarehouseID == warehouseID {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

func (r *memMovementRepo) FindByReference(_ context.Context, ref shared.DocumentRef) ([]inventory.StockMovement, error) {
	var result []inventory.StockMovement
	for _, m := range r.store.movements {
		if m.ReferenceKind == ref.Kind && m.ReferenceID == ref.ID {
			result = append(result, *m)
		}
	}
	return result, nil
}

// ===================== TransitRepository =====================

type memTransitRepo struct{ store *MemoryStore }

func (r *memTransitRepo) Create(_ context.Context, transit *inventory.InventoryTransit) error {
	if transit.ID == uuid.Nil {
		transit.ID = uuid.New()
	}
	r.store.transits[transit.ID] = transit
	return nil
}

func (r *memTransitRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryTransit, error) {
	if t, ok := r.store.transits[id]; ok {
		return t, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memTransitRepo) FindByTransfer(_ context.Context, transferID uuid.UUID) ([]inventory.InventoryTransit, error) {
	var result []inventory.InventoryTransit
	for _, t := range r.store.transits {
		if t.TransferID == transferID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *memTransitRepo) FindOpenByTransferItem(_ context.Context, transferItemID uuid.UUID) (*inventory.InventoryTransit, error) {
	for _, t := range r.store.transits {
		if t.TransferItemID == transferItemID && t.IsOpen() {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memTransitRepo) Save(_ context.Context, transit *inventory.InventoryTransit) error {
	if _, ok := r.store.transits[transit.ID]; !ok {
		return shared.ErrNotFound
	}
	r.store.transits[transit.ID] = transit
	return nil
}

func (r *memTransitRepo) SumOpenQuantityByTransfer(_ context.Context, transferID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range r.store.transits {
		if t.TransferID == transferID && t.IsOpen() {
			sum = sum.Add(t.OpenQuantity())
		}
	}
	return sum, nil
}

// ===================== WarehouseRepository =====================

type memWarehouseRepo struct{ store *MemoryStore }

func (r *memWarehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Warehouse, error) {
	if w, ok := r.store.warehouses[id]; ok {
		return w, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memWarehouseRepo) FindByBranch(_ context.Context, branchID uuid.UUID) ([]inventory.Warehouse, error) {
	var result []inventory.Warehouse
	for _, w := range r.store.warehouses {
		if w.BranchID == branchID {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (r *memWarehouseRepo) BranchOf(_ context.Context, warehouseID uuid.UUID) (uuid.UUID, error) {
	if w, ok := r.store.warehouses[warehouseID]; ok {
		return w.BranchID, nil
	}
	return uuid.Nil, shared.ErrNotFound
}

// ===================== transfer.Repository =====================

type memTransferRepo struct{ store *MemoryStore }

func (r *memTransferRepo) Create(_ context.Context, t *transfer.StockTransfer) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.store.transfers[t.ID] = t
	return nil
}

func (r *memTransferRepo) FindByID(_ context.Context, id uuid.UUID) (*transfer.StockTransfer, error) {
	if t, ok := r.store.transfers[id]; ok {
		return t, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memTransferRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*transfer.StockTransfer, error) {
	return r.FindByID(ctx, id)
}

func (r *memTransferRepo) FindByNumber(_ context.Context, transferNumber string) (*transfer.StockTransfer, error) {
	for _, t := range r.store.transfers {
		if t.TransferNumber == transferNumber {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memTransferRepo) Save(_ context.Context, t *transfer.StockTransfer) error {
	if _, ok := r.store.transfers[t.ID]; !ok {
		return shared.ErrNotFound
	}
	r.store.transfers[t.ID] = t
	return nil
}

func (r *memTransferRepo) matches(t *transfer.StockTransfer, filter shared.Filter) bool {
	if t.DeletedAt != nil {
		if include, ok := filter.Filters["include_deleted"].(bool); !ok || !include {
			return false
		}
	}
	if status, ok := filter.Filters["status"].(string); ok && string(t.Status) != status {
		return false
	}
	if from, ok := filter.Filters["from_branch_id"].(uuid.UUID); ok && t.FromBranchID != from {
		return false
	}
	if to, ok := filter.Filters["to_branch_id"].(uuid.UUID); ok && t.ToBranchID != to {
		return false
	}
	return true
}

func (r *memTransferRepo) List(_ context.Context, filter shared.Filter) ([]transfer.StockTransfer, error) {
	var result []transfer.StockTransfer
	for _, t := range r.store.transfers {
		if r.matches(t, filter) {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return paginate(result, filter), nil
}

func (r *memTransferRepo) Count(_ context.Context, filter shared.Filter) (int64, error) {
	var count int64
	for _, t := range r.store.transfers {
		if r.matches(t, filter) {
			count++
		}
	}
	return count, nil
}

// ===================== sequence.Repository =====================

type memSequenceRepo struct{ store *MemoryStore }

func (r *memSequenceRepo) FindForUpdate(_ context.Context, prefix, scopeKey string) (*sequence.DocumentSequence, error) {
	key := sequenceKey{prefix, scopeKey}
	if seq, ok := r.store.sequences[key]; ok {
		return seq, nil
	}
	seq, err := sequence.NewDocumentSequence(prefix, scopeKey)
	if err != nil {
		return nil, err
	}
	seq.ID = uuid.New()
	r.store.sequences[key] = seq
	return seq, nil
}

func (r *memSequenceRepo) Save(_ context.Context, seq *sequence.DocumentSequence) error {
	key := sequenceKey{seq.Prefix, seq.ScopeKey}
	if _, ok := r.store.sequences[key]; !ok {
		return shared.ErrNotFound
	}
	r.store.sequences[key] = seq
	return nil
}

// paginate applies Page/PageSize slicing to a result set
func paginate[T any](items []T, filter shared.Filter) []T {
	if filter.Page <= 0 || filter.PageSize <= 0 {
		return items
	}
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(items) {
		return nil
	}
	end := start + filter.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
