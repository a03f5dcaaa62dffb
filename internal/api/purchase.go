package api

import (
	"net/http"

	"github.com/Tousif070/Point-Of-Sales-Backend/internal/inventory"
)

// Purchase handlers

type purchaseRequest struct {
	PurchaseTransaction struct {
		TransactionDate string `json:"transaction_date"`
		SupplierID      int64  `json:"supplier_id"`
	} `json:"purchase_transaction"`
	PurchaseVariations []inventory.IntakeLine `json:"purchase_variations"`
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, "purchase.store") {
		return
	}

	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pt, err := h.ledger.Intake(r.Context(), inventory.IntakeInput{
		SupplierID:      req.PurchaseTransaction.SupplierID,
		TransactionDate: req.PurchaseTransaction.TransactionDate,
		FinalizedBy:     userIDFromContext(r),
		Lines:           req.PurchaseVariations,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"purchase_transaction": pt})
}
