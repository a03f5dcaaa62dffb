// Package sales creates sale transactions. A sale is all-or-nothing: the
// transaction shell, every line, and every stock decrement commit together or
// roll back together.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Tousif070/Point-Of-Sales-Backend/domain"
	"github.com/Tousif070/Point-Of-Sales-Backend/internal/inventory"
)

// invoiceOffset keeps invoice numbers out of the low id range so they read
// like document numbers rather than row ids.
const invoiceOffset = 1000

type Builder struct {
	db     *sqlx.DB
	ledger *inventory.Ledger
}

func NewBuilder(db *sqlx.DB, ledger *inventory.Ledger) *Builder {
	return &Builder{db: db, ledger: ledger}
}

// Line is one requested sale entry: which stock unit, how many, at what price.
type Line struct {
	ProductID           int64   `json:"product_id"`
	PurchaseVariationID int64   `json:"purchase_variation_id"`
	Quantity            int64   `json:"quantity"`
	SellingPrice        float64 `json:"selling_price"`
}

type CreateSaleInput struct {
	CustomerID      int64
	TransactionDate string
	FinalizedBy     int64
	Lines           []Line
}

// CreateSale validates the request, then runs the whole checkout in one
// database transaction: insert the shell, reserve stock and insert each line
// in request order, then finalize the invoice number and total. Any failure
// rolls everything back, including stock already reserved for earlier lines.
func (b *Builder) CreateSale(ctx context.Context, in CreateSaleInput) (*domain.SaleTransaction, error) {
	if err := validateSale(in); err != nil {
		return nil, err
	}

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sale: %w", err)
	}
	defer tx.Rollback()

	var customerOK bool
	if err := tx.GetContext(ctx, &customerOK,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND type = $2)`,
		in.CustomerID, domain.UserTypeCustomer); err != nil {
		return nil, fmt.Errorf("check customer: %w", err)
	}
	if !customerOK {
		return nil, fmt.Errorf("%w: customer %d", domain.ErrNotFound, in.CustomerID)
	}

	st := &domain.SaleTransaction{
		Status:          "Final",
		PaymentStatus:   "Due",
		TransactionDate: in.TransactionDate,
		CustomerID:      in.CustomerID,
		FinalizedBy:     in.FinalizedBy,
	}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO sale_transactions (status, payment_status, transaction_date, customer_id, finalized_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, finalized_at`,
		st.Status, st.PaymentStatus, st.TransactionDate, st.CustomerID, st.FinalizedBy,
	).Scan(&st.ID, &st.FinalizedAt)
	if err != nil {
		return nil, fmt.Errorf("insert sale transaction: %w", err)
	}

	var amount float64
	for _, line := range in.Lines {
		var productOK bool
		if err := tx.GetContext(ctx, &productOK,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, line.ProductID); err != nil {
			return nil, fmt.Errorf("check product: %w", err)
		}
		if !productOK {
			return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, line.ProductID)
		}

		res, err := b.ledger.Reserve(ctx, tx, line.PurchaseVariationID, line.Quantity)
		if err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sale_variations
			(sale_transaction_id, product_id, purchase_variation_id, quantity, selling_price, purchase_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			st.ID, line.ProductID, line.PurchaseVariationID, line.Quantity, line.SellingPrice, res.PurchasePrice,
		); err != nil {
			return nil, fmt.Errorf("insert sale variation: %w", err)
		}

		amount += line.SellingPrice * float64(line.Quantity)
	}

	st.InvoiceNo = fmt.Sprintf("Sale#%d", st.ID+invoiceOffset)
	st.Amount = amount
	if _, err := tx.ExecContext(ctx,
		`UPDATE sale_transactions SET invoice_no = $1, amount = $2 WHERE id = $3`,
		st.InvoiceNo, st.Amount, st.ID); err != nil {
		return nil, fmt.Errorf("finalize sale transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sale: %w", err)
	}
	return st, nil
}

func validateSale(in CreateSaleInput) error {
	if in.CustomerID <= 0 {
		return fmt.Errorf("%w: please select the customer", domain.ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", in.TransactionDate); err != nil {
		return fmt.Errorf("%w: please specify a valid transaction date", domain.ErrValidation)
	}
	if in.FinalizedBy <= 0 {
		return fmt.Errorf("%w: missing finalizing user", domain.ErrValidation)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: sale must contain at least one line", domain.ErrValidation)
	}
	for i, line := range in.Lines {
		if line.ProductID <= 0 {
			return fmt.Errorf("%w: line %d: product is required", domain.ErrValidation, i+1)
		}
		if line.PurchaseVariationID <= 0 {
			return fmt.Errorf("%w: line %d: purchase variation is required", domain.ErrValidation, i+1)
		}
		// Quantity bounds are the ledger's call: Reserve rejects quantities
		// below 1 or above availability as insufficient stock.
		if line.SellingPrice < 0 {
			return fmt.Errorf("%w: line %d: selling price cannot be negative", domain.ErrValidation, i+1)
		}
	}
	return nil
}

// NetLine is a sale line with returns netted out, as shown on an invoice.
type NetLine struct {
	ID            int64   `db:"id" json:"id"`
	InvoiceNo     string  `db:"invoice_no" json:"invoice_no"`
	Name          string  `db:"name" json:"name"`
	SKU           string  `db:"sku" json:"sku"`
	Serial        string  `db:"serial" json:"imei"`
	Quantity      int64   `db:"quantity" json:"quantity"`
	SellingPrice  float64 `db:"selling_price" json:"selling_price"`
	PurchasePrice float64 `db:"purchase_price" json:"purchase_price"`
}

// LinesNet lists a transaction's lines with net quantity (sold minus
// returned), excluding fully returned lines.
func (b *Builder) LinesNet(ctx context.Context, saleTransactionID int64) ([]NetLine, error) {
	var exists bool
	if err := b.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM sale_transactions WHERE id = $1)`, saleTransactionID); err != nil {
		return nil, fmt.Errorf("check sale transaction: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: sale transaction %d", domain.ErrNotFound, saleTransactionID)
	}

	lines := []NetLine{}
	err := b.db.SelectContext(ctx, &lines, `
		SELECT sv.id, st.invoice_no, p.name, p.sku,
		       COALESCE(pv.serial, 'N/A') AS serial,
		       sv.quantity - sv.return_quantity AS quantity,
		       sv.selling_price, sv.purchase_price
		FROM sale_variations sv
		JOIN sale_transactions st ON st.id = sv.sale_transaction_id
		JOIN products p ON p.id = sv.product_id
		JOIN purchase_variations pv ON pv.id = sv.purchase_variation_id
		WHERE sv.sale_transaction_id = $1 AND sv.quantity - sv.return_quantity > 0
		ORDER BY sv.id`, saleTransactionID)
	if err != nil {
		return nil, fmt.Errorf("list sale variations: %w", err)
	}
	return lines, nil
}

// Summary is one row of the sale listing.
type Summary struct {
	ID            int64   `db:"id" json:"id"`
	Date          string  `db:"date" json:"date"`
	InvoiceNo     string  `db:"invoice_no" json:"invoice_no"`
	Customer      string  `db:"customer" json:"customer"`
	TotalItems    int64   `db:"total_items" json:"total_items"`
	PaymentStatus string  `db:"payment_status" json:"payment_status"`
	TotalPayable  float64 `db:"total_payable" json:"total_payable"`
	FinalizedBy   string  `db:"finalized_by" json:"finalized_by"`
}

// List returns all sale transactions, newest first, with net item counts and
// the payable amount after any return transactions.
func (b *Builder) List(ctx context.Context) ([]Summary, error) {
	summaries := []Summary{}
	err := b.db.SelectContext(ctx, &summaries, `
		SELECT st.id,
		       st.transaction_date AS date,
		       st.invoice_no,
		       u2.first_name || ' ' || u2.last_name AS customer,
		       SUM(sv.quantity - sv.return_quantity) AS total_items,
		       st.payment_status,
		       st.amount - COALESCE((SELECT SUM(amount) FROM sale_return_transactions WHERE sale_transaction_id = st.id), 0) AS total_payable,
		       u.first_name AS finalized_by
		FROM sale_transactions st
		JOIN users u ON u.id = st.finalized_by
		JOIN users u2 ON u2.id = st.customer_id
		JOIN sale_variations sv ON sv.sale_transaction_id = st.id
		GROUP BY st.id, st.transaction_date, st.invoice_no, st.payment_status, st.amount,
		         u.first_name, u2.first_name, u2.last_name
		ORDER BY st.transaction_date DESC, st.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sale transactions: %w", err)
	}
	return summaries, nil
}
