package domain

type PurchaseTransaction struct {
	ID              int64   `db:"id" json:"id"`
	Status          string  `db:"status" json:"status"`
	PaymentStatus   string  `db:"payment_status" json:"payment_status"`
	TransactionDate string  `db:"transaction_date" json:"transaction_date"`
	SupplierID      int64   `db:"supplier_id" json:"supplier_id"`
	FinalizedBy     int64   `db:"finalized_by" json:"finalized_by"`
	FinalizedAt     string  `db:"finalized_at" json:"finalized_at"`
	InvoiceNo       string  `db:"invoice_no" json:"invoice_no"`
	Amount          float64 `db:"amount" json:"amount"`
}

// PurchaseVariation is a purchased lot of a product. It carries the stock
// counters the sale path decrements: quantity_available + quantity_sold stays
// constant across a sale, and quantity_available never goes negative.
// Serialized units (e.g. phones tracked by IMEI) hold exactly one piece each.
type PurchaseVariation struct {
	ID                    int64   `db:"id" json:"id"`
	PurchaseTransactionID int64   `db:"purchase_transaction_id" json:"purchase_transaction_id"`
	ProductID             int64   `db:"product_id" json:"product_id"`
	PurchasePrice         float64 `db:"purchase_price" json:"purchase_price"`
	QuantityPurchased     int64   `db:"quantity_purchased" json:"quantity_purchased"`
	QuantityAvailable     int64   `db:"quantity_available" json:"quantity_available"`
	QuantitySold          int64   `db:"quantity_sold" json:"quantity_sold"`
	Serial                *string `db:"serial" json:"serial,omitempty"`
	CreatedAt             string  `db:"created_at" json:"created_at,omitempty"`
}
