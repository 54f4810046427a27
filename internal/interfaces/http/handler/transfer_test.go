package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	inventoryapp "github.com/erp/stockcore/internal/application/inventory"
	sequenceapp "github.com/erp/stockcore/internal/application/sequence"
	transferapp "github.com/erp/stockcore/internal/application/transfer"
	"github.com/erp/stockcore/internal/domain/inventory"
	"github.com/erp/stockcore/internal/domain/sequence"
	"github.com/erp/stockcore/internal/interfaces/http/dto"
	"github.com/erp/stockcore/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferTestEnv struct {
	router  *gin.Engine
	store   *testutil.MemoryStore
	ledger  *inventoryapp.LedgerService
	srcWH   *inventory.Warehouse
	dstWH   *inventory.Warehouse
	actorID uuid.UUID
}

func newTransferTestEnv(t *testing.T) *transferTestEnv {
	t.Helper()

	store := testutil.NewMemoryStore()
	repos := store.Repos()
	scope := store.Scope()

	ledger := inventoryapp.NewLedgerService(scope, repos.Warehouses(), repos.Movements(), repos.ProductStocks(), nil)
	transits := inventoryapp.NewTransitService(scope, repos.Transits(), nil)
	sequences := sequenceapp.NewGenerator(scope, sequence.NewDefaultRegistry(), nil)
	transfers := transferapp.NewService(scope, ledger, transits, sequences, nil)
	h := NewTransferHandler(transfers)

	r := gin.New()
	r.POST("/transfers", h.Create)
	r.GET("/transfers", h.List)
	r.GET("/transfers/:id", h.GetByID)
	r.DELETE("/transfers/:id", h.Delete)
	r.GET("/transfers/number/:transfer_number", h.GetByNumber)
	r.POST("/transfers/:id/submit", h.Submit)
	r.POST("/transfers/:id/approve", h.Approve)
	r.POST("/transfers/:id/reject", h.Reject)
	r.POST("/transfers/:id/cancel", h.Cancel)
	r.POST("/transfers/:id/ship", h.Ship)
	r.POST("/transfers/:id/receive", h.Receive)
	r.POST("/transfers/:id/complete", h.Complete)
	r.POST("/transfers/:id/restore", h.Restore)
	r.GET("/transfers/:id/transit", h.GetOpenTransit)

	return &transferTestEnv{
		router:  r,
		store:   store,
		ledger:  ledger,
		srcWH:   store.AddWarehouse(uuid.New(), "WH-SRC"),
		dstWH:   store.AddWarehouse(uuid.New(), "WH-DST"),
		actorID: uuid.New(),
	}
}

func (env *transferTestEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", env.actorID.String())

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// seedStock credits the source warehouse through the ledger
func (env *transferTestEnv) seedStock(t *testing.T, productID uuid.UUID, qty int64) {
	t.Helper()

	_, err := env.ledger.RecordMovement(context.Background(), inventoryapp.MovementRequest{
		ProductID:    productID,
		WarehouseID:  env.srcWH.ID,
		MovementType: inventory.MovementTypePurchase,
		Quantity:     decimal.NewFromInt(qty),
		UnitCost:     decimal.NewFromInt(10),
	})
	require.NoError(t, err)
}

// stockAt reads the branch-level ledger sum for a product
func (env *transferTestEnv) stockAt(t *testing.T, productID, branchID uuid.UUID) string {
	t.Helper()

	level, err := env.ledger.GetStock(context.Background(), productID, branchID)
	require.NoError(t, err)
	return level.String()
}

// createDraft creates a one-line draft transfer and returns its ID and line ID
func (env *transferTestEnv) createDraft(t *testing.T, productID uuid.UUID, qty float64) (string, string) {
	t.Helper()

	w := env.do(t, http.MethodPost, "/transfers", CreateTransferRequest{
		FromWarehouseID: env.srcWH.ID.String(),
		ToWarehouseID:   env.dstWH.ID.String(),
		Items: []CreateTransferItemInput{
			{ProductID: productID.String(), QtyRequested: qty, UnitCost: 10},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := respData(t, w)
	items := data["items"].([]any)
	require.Len(t, items, 1)
	return data["id"].(string), items[0].(map[string]any)["id"].(string)
}

func (env *transferTestEnv) transition(t *testing.T, id, action string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(t, http.MethodPost, "/transfers/"+id+"/"+action, body)
}

func TestTransferHandlerCreate(t *testing.T) {
	t.Run("creates a draft with a sequenced number", func(t *testing.T) {
		env := newTransferTestEnv(t)

		w := env.do(t, http.MethodPost, "/transfers", CreateTransferRequest{
			FromWarehouseID:   env.srcWH.ID.String(),
			ToWarehouseID:     env.dstWH.ID.String(),
			RequiredApprovals: 2,
			Notes:             "restock",
			Items: []CreateTransferItemInput{
				{ProductID: uuid.New().String(), QtyRequested: 10, UnitCost: 12.5},
			},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		data := respData(t, w)
		assert.Equal(t, "DRAFT", data["status"])
		assert.True(t, strings.HasPrefix(data["transfer_number"].(string), "TRF-"), data["transfer_number"])
		assert.Equal(t, float64(2), data["required_approvals"])
		assert.Equal(t, env.srcWH.BranchID.String(), data["from_branch_id"])
		assert.Equal(t, env.dstWH.BranchID.String(), data["to_branch_id"])
		assert.Equal(t, "10", data["total_requested"])
	})

	t.Run("allocates distinct numbers", func(t *testing.T) {
		env := newTransferTestEnv(t)

		first, _ := env.createDraft(t, uuid.New(), 1)
		second, _ := env.createDraft(t, uuid.New(), 1)

		wa := env.do(t, http.MethodGet, "/transfers/"+first, nil)
		wb := env.do(t, http.MethodGet, "/transfers/"+second, nil)
		na := respData(t, wa)["transfer_number"].(string)
		nb := respData(t, wb)["transfer_number"].(string)
		assert.NotEqual(t, na, nb)
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		env := newTransferTestEnv(t)

		w := env.do(t, http.MethodPost, "/transfers", CreateTransferRequest{
			FromWarehouseID: env.srcWH.ID.String(),
			ToWarehouseID:   env.dstWH.ID.String(),
			Items:           []CreateTransferItemInput{},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("requires an actor identity", func(t *testing.T) {
		env := newTransferTestEnv(t)

		body, _ := json.Marshal(CreateTransferRequest{
			FromWarehouseID: env.srcWH.ID.String(),
			ToWarehouseID:   env.dstWH.ID.String(),
			Items: []CreateTransferItemInput{
				{ProductID: uuid.New().String(), QtyRequested: 1},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects unknown warehouse", func(t *testing.T) {
		env := newTransferTestEnv(t)

		w := env.do(t, http.MethodPost, "/transfers", CreateTransferRequest{
			FromWarehouseID: uuid.New().String(),
			ToWarehouseID:   env.dstWH.ID.String(),
			Items: []CreateTransferItemInput{
				{ProductID: uuid.New().String(), QtyRequested: 1},
			},
		})
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})
}

func TestTransferHandlerLifecycle(t *testing.T) {
	env := newTransferTestEnv(t)
	productID := uuid.New()
	env.seedStock(t, productID, 50)

	id, itemID := env.createDraft(t, productID, 10)

	w := env.transition(t, id, "submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PENDING", respData(t, w)["status"])

	w = env.transition(t, id, "approve", ApprovalActionRequest{Notes: "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := respData(t, w)
	assert.Equal(t, "APPROVED", data["status"])
	assert.Equal(t, "10", data["items"].([]any)[0].(map[string]any)["qty_approved"])

	w = env.transition(t, id, "ship", ShipTransferRequest{Carrier: "DHL", TrackingNumber: "JD42"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = respData(t, w)
	assert.Equal(t, "IN_TRANSIT", data["status"])
	assert.Equal(t, "DHL", data["carrier"])
	assert.Equal(t, "10", data["total_shipped"])

	// Shipped quantity left the source and belongs to neither branch yet
	assert.Equal(t, "40", env.stockAt(t, productID, env.srcWH.BranchID))
	assert.Equal(t, "0", env.stockAt(t, productID, env.dstWH.BranchID))

	w = env.do(t, http.MethodGet, "/transfers/"+id+"/transit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", respData(t, w)["open_quantity"])

	w = env.transition(t, id, "receive", ReceiveTransferRequest{
		Receipts: []ReceiptLineInput{{ItemID: itemID, QtyReceived: 9, QtyDamaged: 1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = respData(t, w)
	assert.Equal(t, "RECEIVED", data["status"])
	assert.Equal(t, "9", data["total_received"])
	assert.Equal(t, "1", data["total_damaged"])

	// Damaged quantity is written off, never credited to the destination
	assert.Equal(t, "40", env.stockAt(t, productID, env.srcWH.BranchID))
	assert.Equal(t, "9", env.stockAt(t, productID, env.dstWH.BranchID))

	w = env.do(t, http.MethodGet, "/transfers/"+id+"/transit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", respData(t, w)["open_quantity"])

	w = env.transition(t, id, "complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "COMPLETED", respData(t, w)["status"])
}

func TestTransferHandlerGuardRefusals(t *testing.T) {
	t.Run("ship refused on a draft", func(t *testing.T) {
		env := newTransferTestEnv(t)
		id, _ := env.createDraft(t, uuid.New(), 5)

		w := env.transition(t, id, "ship", nil)
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
		assert.Equal(t, dto.ErrCodeNotPermitted, respErrorCode(t, w))
	})

	t.Run("double submit refused", func(t *testing.T) {
		env := newTransferTestEnv(t)
		id, _ := env.createDraft(t, uuid.New(), 5)

		require.Equal(t, http.StatusOK, env.transition(t, id, "submit", nil).Code)
		w := env.transition(t, id, "submit", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("cancel refused once in transit", func(t *testing.T) {
		env := newTransferTestEnv(t)
		productID := uuid.New()
		env.seedStock(t, productID, 20)
		id, _ := env.createDraft(t, productID, 5)

		require.Equal(t, http.StatusOK, env.transition(t, id, "submit", nil).Code)
		require.Equal(t, http.StatusOK, env.transition(t, id, "approve", nil).Code)
		require.Equal(t, http.StatusOK, env.transition(t, id, "ship", nil).Code)

		w := env.transition(t, id, "cancel", CancelTransferRequest{Reason: "too late"})
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
		assert.Equal(t, dto.ErrCodeNotPermitted, respErrorCode(t, w))

		// Still in transit, nothing rolled back
		w = env.do(t, http.MethodGet, "/transfers/"+id, nil)
		assert.Equal(t, "IN_TRANSIT", respData(t, w)["status"])
	})

	t.Run("reject refused on a draft", func(t *testing.T) {
		env := newTransferTestEnv(t)
		id, _ := env.createDraft(t, uuid.New(), 5)

		w := env.transition(t, id, "reject", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown transfer is a 404, not a refusal", func(t *testing.T) {
		env := newTransferTestEnv(t)

		w := env.transition(t, uuid.New().String(), "submit", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})
}

func TestTransferHandlerCancel(t *testing.T) {
	env := newTransferTestEnv(t)
	id, _ := env.createDraft(t, uuid.New(), 5)

	w := env.transition(t, id, "cancel", CancelTransferRequest{Reason: "duplicate"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := respData(t, w)
	assert.Equal(t, "CANCELLED", data["status"])
	assert.Equal(t, "duplicate", data["cancel_reason"])
}

func TestTransferHandlerReject(t *testing.T) {
	env := newTransferTestEnv(t)
	id, _ := env.createDraft(t, uuid.New(), 5)
	require.Equal(t, http.StatusOK, env.transition(t, id, "submit", nil).Code)

	w := env.transition(t, id, "reject", ApprovalActionRequest{Notes: "no demand"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "REJECTED", respData(t, w)["status"])
}

func TestTransferHandlerShipInsufficientStock(t *testing.T) {
	env := newTransferTestEnv(t)
	id, _ := env.createDraft(t, uuid.New(), 5) // nothing seeded

	require.Equal(t, http.StatusOK, env.transition(t, id, "submit", nil).Code)
	require.Equal(t, http.StatusOK, env.transition(t, id, "approve", nil).Code)

	w := env.transition(t, id, "ship", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, dto.ErrCodeInsufficientStock, respErrorCode(t, w))

	// The failed ship left the transfer approved and the stock untouched
	w = env.do(t, http.MethodGet, "/transfers/"+id, nil)
	assert.Equal(t, "APPROVED", respData(t, w)["status"])
}

func TestTransferHandlerCompleteConservation(t *testing.T) {
	env := newTransferTestEnv(t)
	productID := uuid.New()
	env.seedStock(t, productID, 20)
	id, itemID := env.createDraft(t, productID, 10)

	require.Equal(t, http.StatusOK, env.transition(t, id, "submit", nil).Code)
	require.Equal(t, http.StatusOK, env.transition(t, id, "approve", nil).Code)
	require.Equal(t, http.StatusOK, env.transition(t, id, "ship", nil).Code)

	// Partial receipt leaves 4 units unaccounted in transit
	w := env.transition(t, id, "receive", ReceiveTransferRequest{
		Receipts: []ReceiptLineInput{{ItemID: itemID, QtyReceived: 6}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.transition(t, id, "complete", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, dto.ErrCodeConservationViolation, respErrorCode(t, w))
}

func TestTransferHandlerReceiveOverdelivery(t *testing.T) {
	env := newTransferTestEnv(t)
	productID := uuid.New()
	env.seedStock(t, productID, 20)
	id, itemID := env.createDraft(t, productID, 10)

	require.Equal(t, http.StatusOK, env.transition(t, id, "submit", nil).Code)
	require.Equal(t, http.StatusOK, env.transition(t, id, "approve", nil).Code)
	require.Equal(t, http.StatusOK, env.transition(t, id, "ship", nil).Code)

	w := env.transition(t, id, "receive", ReceiveTransferRequest{
		Receipts: []ReceiptLineInput{{ItemID: itemID, QtyReceived: 9, QtyDamaged: 2}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestTransferHandlerList(t *testing.T) {
	env := newTransferTestEnv(t)
	idA, _ := env.createDraft(t, uuid.New(), 2)
	idB, _ := env.createDraft(t, uuid.New(), 3)
	require.Equal(t, http.StatusOK, env.transition(t, idB, "submit", nil).Code)

	t.Run("lists all", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/transfers", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeResponse(t, w)
		meta := resp["meta"].(map[string]any)
		assert.Equal(t, float64(2), meta["total"])
	})

	t.Run("filters by status", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/transfers?status=PENDING", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		meta := resp["meta"].(map[string]any)
		assert.Equal(t, float64(1), meta["total"])
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/transfers?status=TELEPORTED", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("filters by source branch", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/transfers?from_branch_id="+env.srcWH.BranchID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		meta := resp["meta"].(map[string]any)
		assert.Equal(t, float64(2), meta["total"])
	})

	_ = idA
}

func TestTransferHandlerGetByNumber(t *testing.T) {
	env := newTransferTestEnv(t)
	id, _ := env.createDraft(t, uuid.New(), 2)

	w := env.do(t, http.MethodGet, "/transfers/"+id, nil)
	number := respData(t, w)["transfer_number"].(string)

	w = env.do(t, http.MethodGet, "/transfers/number/"+number, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, id, respData(t, w)["id"])

	w = env.do(t, http.MethodGet, "/transfers/number/TRF-19000101-9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransferHandlerDeleteRestore(t *testing.T) {
	env := newTransferTestEnv(t)
	id, _ := env.createDraft(t, uuid.New(), 2)

	w := env.do(t, http.MethodDelete, "/transfers/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	// Tombstoned transfers disappear from default listings
	w = env.do(t, http.MethodGet, "/transfers", nil)
	resp := decodeResponse(t, w)
	assert.Equal(t, float64(0), resp["meta"].(map[string]any)["total"])

	w = env.do(t, http.MethodGet, "/transfers?include_deleted=true", nil)
	resp = decodeResponse(t, w)
	assert.Equal(t, float64(1), resp["meta"].(map[string]any)["total"])

	w = env.do(t, http.MethodPost, "/transfers/"+id+"/restore", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := respData(t, w)
	assert.Equal(t, "DRAFT", data["status"])
	assert.Nil(t, data["deleted_at"])
	assert.Equal(t, "2", data["total_requested"])

	w = env.do(t, http.MethodGet, "/transfers", nil)
	resp = decodeResponse(t, w)
	assert.Equal(t, float64(1), resp["meta"].(map[string]any)["total"])
}
