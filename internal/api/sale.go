package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Tousif070/Point-Of-Sales-Backend/domain"
	"github.com/Tousif070/Point-Of-Sales-Backend/internal/sales"
)

// Sale handlers

type saleRequest struct {
	SaleTransaction struct {
		TransactionDate string `json:"transaction_date"`
		CustomerID      int64  `json:"customer_id"`
	} `json:"sale_transaction"`
	SaleVariations []sales.Line `json:"sale_variations"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, "sale.store") {
		return
	}

	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.sales.CreateSale(r.Context(), sales.CreateSaleInput{
		CustomerID:      req.SaleTransaction.CustomerID,
		TransactionDate: req.SaleTransaction.TransactionDate,
		FinalizedBy:     userIDFromContext(r),
		Lines:           req.SaleVariations,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"sale_transaction": st})
}

func (h *Handler) saleIndex(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, "sale.index") {
		return
	}
	summaries, err := h.sales.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sale_transactions": summaries})
}

func (h *Handler) imeiScan(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, "sale.store") {
		return
	}
	imei := strings.TrimSpace(r.URL.Query().Get("imei"))
	if imei == "" {
		respondError(w, http.StatusNotFound, "Nothing to scan !")
		return
	}
	unit, err := h.ledger.FindBySerial(r.Context(), imei)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"purchase_variation": unit})
}

func (h *Handler) imeiScanAlternative(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, "sale.store") {
		return
	}
	id, err := strconv.ParseInt(r.URL.Query().Get("purchase_variation_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusNotFound, "Purchase Variation not specified !")
		return
	}
	unit, err := h.ledger.FindSellableByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"purchase_variation": unit})
}

func (h *Handler) purchaseVariationsForSale(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, "sale.store") {
		return
	}
	productID, _ := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	productModelID, _ := strconv.ParseInt(r.URL.Query().Get("product_model_id"), 10, 64)

	options, err := h.ledger.ListSellable(r.Context(), productID, productModelID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"purchase_variations": options})
}

func (h *Handler) saleVariations(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, "sale.index") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid sale transaction id")
		return
	}
	lines, err := h.sales.LinesNet(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sale_variations": lines})
}

// storeSaleView supplies the lookup data the sale entry form needs: customers,
// product models and products. Plain reads, no business logic.
func (h *Handler) storeSaleView(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, "sale.store") {
		return
	}

	type customerOption struct {
		ID        int64  `db:"id" json:"id"`
		FirstName string `db:"first_name" json:"first_name"`
		LastName  string `db:"last_name" json:"last_name"`
	}
	type productOption struct {
		ID   int64  `db:"id" json:"id"`
		Name string `db:"name" json:"name"`
		SKU  string `db:"sku" json:"sku"`
	}

	customers := []customerOption{}
	if err := h.db.SelectContext(r.Context(), &customers,
		`SELECT id, first_name, last_name FROM users WHERE type = $1 ORDER BY first_name`,
		domain.UserTypeCustomer); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load customers")
		return
	}

	productModels := []domain.ProductModel{}
	if err := h.db.SelectContext(r.Context(), &productModels,
		`SELECT id, name FROM product_models ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load product models")
		return
	}

	products := []productOption{}
	if err := h.db.SelectContext(r.Context(), &products,
		`SELECT id, name, sku FROM products ORDER BY sku`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load products")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"customers":      customers,
		"product_models": productModels,
		"products":       products,
	})
}
