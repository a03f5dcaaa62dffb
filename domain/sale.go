package domain

type SaleTransaction struct {
	ID              int64   `db:"id" json:"id"`
	Status          string  `db:"status" json:"status"`
	PaymentStatus   string  `db:"payment_status" json:"payment_status"`
	TransactionDate string  `db:"transaction_date" json:"transaction_date"`
	CustomerID      int64   `db:"customer_id" json:"customer_id"`
	FinalizedBy     int64   `db:"finalized_by" json:"finalized_by"`
	FinalizedAt     string  `db:"finalized_at" json:"finalized_at"`
	InvoiceNo       string  `db:"invoice_no" json:"invoice_no"`
	Amount          float64 `db:"amount" json:"amount"`
}

// SaleVariation is one line of a sale transaction. purchase_price is a
// snapshot taken from the purchase variation at sale time, kept for margin
// reporting; it never changes afterwards.
type SaleVariation struct {
	ID                  int64   `db:"id" json:"id"`
	SaleTransactionID   int64   `db:"sale_transaction_id" json:"sale_transaction_id"`
	ProductID           int64   `db:"product_id" json:"product_id"`
	PurchaseVariationID int64   `db:"purchase_variation_id" json:"purchase_variation_id"`
	Quantity            int64   `db:"quantity" json:"quantity"`
	ReturnQuantity      int64   `db:"return_quantity" json:"return_quantity"`
	SellingPrice        float64 `db:"selling_price" json:"selling_price"`
	PurchasePrice       float64 `db:"purchase_price" json:"purchase_price"`
}
