package transfer

import (
	"testing"

	"github.com/erp/stockcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers

func createTestTransfer(t *testing.T) *StockTransfer {
	transfer, err := NewStockTransfer(
		"TRF-20260830-0001",
		uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New(),
	)
	require.NoError(t, err)
	return transfer
}

func addTestItem(t *testing.T, transfer *StockTransfer, qty int64) *StockTransferItem {
	item, err := transfer.AddItem(uuid.New(), decimal.NewFromInt(qty), decimal.NewFromInt(10))
	require.NoError(t, err)
	return item
}

// shipTestTransfer walks a transfer with one item of the given quantity
// through to IN_TRANSIT.
func shipTestTransfer(t *testing.T, qty int64) (*StockTransfer, *StockTransferItem) {
	transfer := createTestTransfer(t)
	item := addTestItem(t, transfer, qty)
	actor := uuid.New()
	require.NoError(t, transfer.Submit(actor))
	require.NoError(t, transfer.Approve(actor, ""))
	require.NoError(t, transfer.Ship(actor, "DHL", "TRACK-1"))
	return transfer, transfer.FindItem(item.ID)
}

// ============================================
// TransferStatus Tests
// ============================================

func TestTransferStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  TransferStatus
		isValid bool
	}{
		{TransferStatusDraft, true},
		{TransferStatusPending, true},
		{TransferStatusApproved, true},
		{TransferStatusInTransit, true},
		{TransferStatusReceived, true},
		{TransferStatusCompleted, true},
		{TransferStatusRejected, true},
		{TransferStatusCancelled, true},
		{TransferStatus("INVALID"), false},
		{TransferStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestTransferStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     TransferStatus
		to       TransferStatus
		canTrans bool
	}{
		{TransferStatusDraft, TransferStatusPending, true},
		{TransferStatusDraft, TransferStatusCancelled, true},
		{TransferStatusDraft, TransferStatusApproved, false},
		{TransferStatusDraft, TransferStatusInTransit, false},
		{TransferStatusPending, TransferStatusApproved, true},
		{TransferStatusPending, TransferStatusRejected, true},
		{TransferStatusPending, TransferStatusCancelled, true},
		{TransferStatusPending, TransferStatusInTransit, false},
		{TransferStatusApproved, TransferStatusInTransit, true},
		{TransferStatusApproved, TransferStatusCancelled, true},
		{TransferStatusApproved, TransferStatusReceived, false},
		{TransferStatusInTransit, TransferStatusReceived, true},
		// Shipped stock must be received, never voided by cancellation.
		{TransferStatusInTransit, TransferStatusCancelled, false},
		{TransferStatusInTransit, TransferStatusCompleted, false},
		{TransferStatusReceived, TransferStatusCompleted, true},
		{TransferStatusReceived, TransferStatusCancelled, false},
		{TransferStatusCompleted, TransferStatusCancelled, false},
		{TransferStatusRejected, TransferStatusPending, false},
		{TransferStatusCancelled, TransferStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransferStatus_IsTerminal(t *testing.T) {
	assert.True(t, TransferStatusCompleted.IsTerminal())
	assert.True(t, TransferStatusRejected.IsTerminal())
	assert.True(t, TransferStatusCancelled.IsTerminal())
	assert.False(t, TransferStatusDraft.IsTerminal())
	assert.False(t, TransferStatusInTransit.IsTerminal())
	assert.False(t, TransferStatusReceived.IsTerminal())
}

// ============================================
// StockTransfer Creation Tests
// ============================================

func TestNewStockTransfer(t *testing.T) {
	transfer := createTestTransfer(t)

	assert.Equal(t, TransferStatusDraft, transfer.Status)
	assert.Equal(t, 1, transfer.RequiredApprovals)
	assert.True(t, transfer.TotalRequested.IsZero())
	assert.Empty(t, transfer.Items)
	assert.Len(t, transfer.GetDomainEvents(), 1)
}

func TestNewStockTransfer_Validation(t *testing.T) {
	from, to, src, dst, actor := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()

	_, err := NewStockTransfer("", from, to, src, dst, actor)
	assert.Error(t, err)

	_, err = NewStockTransfer("TRF-1", uuid.Nil, to, src, dst, actor)
	assert.Error(t, err)

	_, err = NewStockTransfer("TRF-1", from, to, src, src, actor)
	assert.Error(t, err, "source and destination warehouse must differ")

	_, err = NewStockTransfer("TRF-1", from, to, src, dst, uuid.Nil)
	assert.Error(t, err)
}

func TestStockTransfer_SetRequiredApprovals(t *testing.T) {
	transfer := createTestTransfer(t)

	require.NoError(t, transfer.SetRequiredApprovals(2))
	assert.Equal(t, 2, transfer.RequiredApprovals)

	err := transfer.SetRequiredApprovals(0)
	assert.Error(t, err)

	addTestItem(t, transfer, 5)
	require.NoError(t, transfer.Submit(uuid.New()))
	assert.ErrorIs(t, transfer.SetRequiredApprovals(3), shared.ErrInvalidTransition)
}

// ============================================
// Item Management Tests
// ============================================

func TestStockTransfer_AddItem(t *testing.T) {
	transfer := createTestTransfer(t)

	item := addTestItem(t, transfer, 10)
	assert.True(t, item.QtyRequested.Equal(decimal.NewFromInt(10)))
	assert.True(t, transfer.TotalRequested.Equal(decimal.NewFromInt(10)))

	// Same product twice is rejected
	_, err := transfer.AddItem(item.ProductID, decimal.NewFromInt(3), decimal.NewFromInt(10))
	assert.Error(t, err)

	// Zero quantity is rejected
	_, err = transfer.AddItem(uuid.New(), decimal.Zero, decimal.NewFromInt(10))
	assert.Error(t, err)
}

func TestStockTransfer_AddItem_AfterSubmit(t *testing.T) {
	transfer := createTestTransfer(t)
	addTestItem(t, transfer, 10)
	require.NoError(t, transfer.Submit(uuid.New()))

	_, err := transfer.AddItem(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(10))
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestStockTransfer_UpdateItemQuantity(t *testing.T) {
	transfer := createTestTransfer(t)
	item := addTestItem(t, transfer, 10)

	require.NoError(t, transfer.UpdateItemQuantity(item.ID, decimal.NewFromInt(7)))
	assert.True(t, transfer.TotalRequested.Equal(decimal.NewFromInt(7)))

	err := transfer.UpdateItemQuantity(uuid.New(), decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestStockTransfer_RemoveItem(t *testing.T) {
	transfer := createTestTransfer(t)
	item := addTestItem(t, transfer, 10)
	addTestItem(t, transfer, 5)

	require.NoError(t, transfer.RemoveItem(item.ID))
	assert.Len(t, transfer.Items, 1)
	assert.True(t, transfer.TotalRequested.Equal(decimal.NewFromInt(5)))
}

// ============================================
// Lifecycle Tests
// ============================================

func TestStockTransfer_Submit(t *testing.T) {
	transfer := createTestTransfer(t)
	addTestItem(t, transfer, 10)

	require.NoError(t, transfer.Submit(uuid.New()))
	assert.Equal(t, TransferStatusPending, transfer.Status)
	assert.NotNil(t, transfer.SubmittedAt)
	assert.Len(t, transfer.History, 1)
}

func TestStockTransfer_Submit_WithoutItems(t *testing.T) {
	transfer := createTestTransfer(t)
	err := transfer.Submit(uuid.New())
	assert.Error(t, err)
	assert.Equal(t, TransferStatusDraft, transfer.Status)
}

func TestStockTransfer_Approve_LocksQuantities(t *testing.T) {
	transfer := createTestTransfer(t)
	item := addTestItem(t, transfer, 10)
	require.NoError(t, transfer.Submit(uuid.New()))

	require.NoError(t, transfer.Approve(uuid.New(), "looks good"))
	assert.Equal(t, TransferStatusApproved, transfer.Status)
	assert.True(t, transfer.FindItem(item.ID).QtyApproved.Equal(decimal.NewFromInt(10)))
	assert.NotNil(t, transfer.ApprovedAt)
}

func TestStockTransfer_Approve_MultiLevel(t *testing.T) {
	transfer := createTestTransfer(t)
	require.NoError(t, transfer.SetRequiredApprovals(2))
	addTestItem(t, transfer, 10)
	require.NoError(t, transfer.Submit(uuid.New()))

	first := uuid.New()
	require.NoError(t, transfer.Approve(first, ""))
	assert.Equal(t, TransferStatusPending, transfer.Status, "one of two levels keeps it pending")

	// The same approver cannot sign off twice
	assert.Error(t, transfer.Approve(first, ""))

	require.NoError(t, transfer.Approve(uuid.New(), ""))
	assert.Equal(t, TransferStatusApproved, transfer.Status)
	assert.Len(t, transfer.Approvals, 2)
}

func TestStockTransfer_Reject(t *testing.T) {
	transfer := createTestTransfer(t)
	addTestItem(t, transfer, 10)
	require.NoError(t, transfer.Submit(uuid.New()))

	require.NoError(t, transfer.Reject(uuid.New(), "not needed"))
	assert.Equal(t, TransferStatusRejected, transfer.Status)
	assert.Len(t, transfer.Approvals, 1)
	assert.Equal(t, ApprovalDecisionRejected, transfer.Approvals[0].Decision)

	// Terminal: nothing moves a rejected transfer
	assert.ErrorIs(t, transfer.Submit(uuid.New()), shared.ErrInvalidTransition)
}

func TestStockTransfer_Reject_DraftNotAllowed(t *testing.T) {
	transfer := createTestTransfer(t)
	addTestItem(t, transfer, 10)
	assert.ErrorIs(t, transfer.Reject(uuid.New(), "no"), shared.ErrInvalidTransition)
}

func TestStockTransfer_Ship(t *testing.T) {
	transfer, item := shipTestTransfer(t, 10)

	assert.Equal(t, TransferStatusInTransit, transfer.Status)
	assert.Equal(t, "DHL", transfer.Carrier)
	assert.Equal(t, "TRACK-1", transfer.TrackingNumber)
	assert.True(t, item.QtyShipped.Equal(decimal.NewFromInt(10)))
	assert.True(t, transfer.TotalShipped.Equal(decimal.NewFromInt(10)))
	assert.NotNil(t, transfer.ShippedAt)
}

func TestStockTransfer_Ship_FromDraft(t *testing.T) {
	transfer := createTestTransfer(t)
	addTestItem(t, transfer, 10)
	assert.ErrorIs(t, transfer.Ship(uuid.New(), "DHL", ""), shared.ErrInvalidTransition)
}

func TestStockTransfer_Receive(t *testing.T) {
	transfer, item := shipTestTransfer(t, 10)

	err := transfer.Receive(uuid.New(), []ItemReceipt{
		{ItemID: item.ID, QtyReceived: decimal.NewFromInt(9), QtyDamaged: decimal.NewFromInt(1)},
	})
	require.NoError(t, err)

	assert.Equal(t, TransferStatusReceived, transfer.Status)
	assert.True(t, item.QtyReceived.Equal(decimal.NewFromInt(9)))
	assert.True(t, item.QtyDamaged.Equal(decimal.NewFromInt(1)))
	assert.True(t, transfer.TotalReceived.Equal(decimal.NewFromInt(9)))
	assert.True(t, transfer.TotalDamaged.Equal(decimal.NewFromInt(1)))
}

func TestStockTransfer_Receive_Overdelivery(t *testing.T) {
	transfer, item := shipTestTransfer(t, 10)

	err := transfer.Receive(uuid.New(), []ItemReceipt{
		{ItemID: item.ID, QtyReceived: decimal.NewFromInt(9), QtyDamaged: decimal.NewFromInt(2)},
	})
	assert.Error(t, err, "received plus damaged may not exceed shipped")
	assert.Equal(t, TransferStatusInTransit, transfer.Status)
	assert.True(t, item.QtyReceived.IsZero(), "failed receipt must not mutate lines")
}

func TestStockTransfer_Receive_NegativeQuantity(t *testing.T) {
	transfer, item := shipTestTransfer(t, 10)

	err := transfer.Receive(uuid.New(), []ItemReceipt{
		{ItemID: item.ID, QtyReceived: decimal.NewFromInt(-1)},
	})
	assert.Error(t, err)
}

func TestStockTransfer_Complete(t *testing.T) {
	transfer, item := shipTestTransfer(t, 10)
	require.NoError(t, transfer.Receive(uuid.New(), []ItemReceipt{
		{ItemID: item.ID, QtyReceived: decimal.NewFromInt(10)},
	}))

	require.NoError(t, transfer.Complete(uuid.New()))
	assert.Equal(t, TransferStatusCompleted, transfer.Status)
	assert.NotNil(t, transfer.CompletedAt)
}

func TestStockTransfer_Complete_UnreconciledLine(t *testing.T) {
	transfer, item := shipTestTransfer(t, 10)
	require.NoError(t, transfer.Receive(uuid.New(), []ItemReceipt{
		{ItemID: item.ID, QtyReceived: decimal.NewFromInt(6)},
	}))

	err := transfer.Complete(uuid.New())
	assert.ErrorIs(t, err, shared.ErrConservationViolation)
	assert.Equal(t, TransferStatusReceived, transfer.Status)
}

func TestStockTransfer_Cancel(t *testing.T) {
	for _, setup := range []func(tr *StockTransfer){
		func(tr *StockTransfer) {}, // draft
		func(tr *StockTransfer) { require.NoError(t, tr.Submit(uuid.New())) },
		func(tr *StockTransfer) {
			require.NoError(t, tr.Submit(uuid.New()))
			require.NoError(t, tr.Approve(uuid.New(), ""))
		},
	} {
		transfer := createTestTransfer(t)
		addTestItem(t, transfer, 10)
		setup(transfer)

		require.NoError(t, transfer.Cancel(uuid.New(), "changed plans"))
		assert.Equal(t, TransferStatusCancelled, transfer.Status)
		assert.Equal(t, "changed plans", transfer.CancelReason)
		assert.NotNil(t, transfer.CancelledAt)
	}
}

func TestStockTransfer_Cancel_InTransit(t *testing.T) {
	transfer, _ := shipTestTransfer(t, 10)

	err := transfer.Cancel(uuid.New(), "too late")
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	assert.Equal(t, TransferStatusInTransit, transfer.Status)
}

// ============================================
// Tombstone Tests
// ============================================

func TestStockTransfer_MarkDeleted(t *testing.T) {
	transfer := createTestTransfer(t)

	require.NoError(t, transfer.MarkDeleted())
	assert.True(t, transfer.IsDeleted())

	err := transfer.MarkDeleted()
	assert.Error(t, err, "double delete is rejected")
}

func TestStockTransfer_MarkDeleted_InTransit(t *testing.T) {
	transfer, _ := shipTestTransfer(t, 10)
	assert.Error(t, transfer.MarkDeleted())
	assert.False(t, transfer.IsDeleted())
}

func TestStockTransfer_Restore(t *testing.T) {
	transfer := createTestTransfer(t)
	addTestItem(t, transfer, 10)
	require.NoError(t, transfer.MarkDeleted())

	// Simulate a stale header total; restore recomputes from the lines.
	transfer.TotalRequested = decimal.NewFromInt(999)

	require.NoError(t, transfer.Restore())
	assert.False(t, transfer.IsDeleted())
	assert.True(t, transfer.TotalRequested.Equal(decimal.NewFromInt(10)))

	err := transfer.Restore()
	assert.Error(t, err, "restore requires a tombstone")
}

// ============================================
// History Tests
// ============================================

func TestStockTransfer_HistoryTrail(t *testing.T) {
	transfer, item := shipTestTransfer(t, 10)
	require.NoError(t, transfer.Receive(uuid.New(), []ItemReceipt{
		{ItemID: item.ID, QtyReceived: decimal.NewFromInt(10)},
	}))
	require.NoError(t, transfer.Complete(uuid.New()))

	require.Len(t, transfer.History, 5)
	assert.Equal(t, TransferStatusDraft, transfer.History[0].FromStatus)
	assert.Equal(t, TransferStatusPending, transfer.History[0].ToStatus)
	assert.Equal(t, TransferStatusCompleted, transfer.History[4].ToStatus)
}
