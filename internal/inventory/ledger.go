// Package inventory owns the stock counters on purchase variations. Reserve
// is the only place quantity_available is ever decremented, so it is the only
// place overselling could happen under concurrent checkouts.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Tousif070/Point-Of-Sales-Backend/domain"
)

type Ledger struct {
	db *sqlx.DB
}

func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

// Reservation reports the counters after a successful stock decrement, plus
// the unit purchase price for snapshotting onto the sale line.
type Reservation struct {
	QuantityAvailable int64
	QuantitySold      int64
	PurchasePrice     float64
}

// Reserve moves quantity pieces of a purchase variation from available to
// sold inside the caller's transaction. The decrement and the availability
// check are one guarded UPDATE, so two concurrent sales of the same variation
// serialize on the row and can never jointly oversell it.
func (l *Ledger) Reserve(ctx context.Context, tx *sqlx.Tx, purchaseVariationID, quantity int64) (Reservation, error) {
	var res Reservation
	if quantity < 1 {
		return res, fmt.Errorf("%w: sale quantity cannot be less than 1", domain.ErrInsufficientStock)
	}

	err := tx.QueryRowxContext(ctx, `
		UPDATE purchase_variations
		SET quantity_available = quantity_available - $1,
		    quantity_sold = quantity_sold + $2
		WHERE id = $3 AND quantity_available >= $4
		RETURNING quantity_available, quantity_sold, purchase_price`,
		quantity, quantity, purchaseVariationID, quantity,
	).Scan(&res.QuantityAvailable, &res.QuantitySold, &res.PurchasePrice)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return res, fmt.Errorf("reserve stock: %w", err)
	}

	// No row matched: either the variation does not exist or it holds less
	// than the requested quantity.
	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM purchase_variations WHERE id = $1)`, purchaseVariationID); err != nil {
		return res, fmt.Errorf("reserve stock: %w", err)
	}
	if !exists {
		return res, fmt.Errorf("%w: purchase variation %d", domain.ErrNotFound, purchaseVariationID)
	}
	return res, fmt.Errorf("%w: sale quantity cannot be greater than available quantity", domain.ErrInsufficientStock)
}

// SellableUnit is the payload returned by the point-of-sale scan lookups.
type SellableUnit struct {
	ID                int64   `db:"id" json:"id"`
	ProductID         int64   `db:"product_id" json:"product_id"`
	Name              string  `db:"name" json:"name"`
	SKU               string  `db:"sku" json:"sku"`
	Serial            string  `db:"serial" json:"imei"`
	QuantityAvailable int64   `db:"quantity_available" json:"quantity_available"`
	PurchasePrice     float64 `db:"purchase_price" json:"purchase_price"`
}

const sellableUnitQuery = `
	SELECT pv.id, p.id AS product_id, p.name, p.sku,
	       COALESCE(pv.serial, 'N/A') AS serial,
	       pv.quantity_available, pv.purchase_price
	FROM purchase_variations pv
	JOIN products p ON p.id = pv.product_id
	WHERE pv.quantity_available > 0`

// FindBySerial locates a sellable purchase variation by its serial (IMEI).
func (l *Ledger) FindBySerial(ctx context.Context, serial string) (*SellableUnit, error) {
	var unit SellableUnit
	err := l.db.GetContext(ctx, &unit, sellableUnitQuery+` AND pv.serial = $1`, serial)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: serial %s", domain.ErrNotFound, serial)
	}
	if err != nil {
		return nil, fmt.Errorf("find by serial: %w", err)
	}
	return &unit, nil
}

// FindSellableByID locates a sellable purchase variation by id, for units
// without a serial to scan.
func (l *Ledger) FindSellableByID(ctx context.Context, id int64) (*SellableUnit, error) {
	var unit SellableUnit
	err := l.db.GetContext(ctx, &unit, sellableUnitQuery+` AND pv.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: purchase variation %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find sellable: %w", err)
	}
	return &unit, nil
}

// SellableOption is a short listing entry for the sale entry form.
type SellableOption struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	SKU  string `db:"sku" json:"sku"`
}

// ListSellable returns purchase variations with stock remaining, filtered by
// product or product model. With neither filter set it returns nothing, which
// matches how the sale form queries it.
func (l *Ledger) ListSellable(ctx context.Context, productID, productModelID int64) ([]SellableOption, error) {
	if productID <= 0 && productModelID <= 0 {
		return []SellableOption{}, nil
	}

	query := `
		SELECT pv.id, p.name, p.sku
		FROM purchase_variations pv
		JOIN products p ON p.id = pv.product_id
		WHERE pv.quantity_available > 0`
	var args []any
	if productModelID > 0 {
		args = append(args, productModelID)
		query += fmt.Sprintf(" AND p.product_model_id = $%d", len(args))
	}
	if productID > 0 {
		args = append(args, productID)
		query += fmt.Sprintf(" AND p.id = $%d", len(args))
	}
	query += " ORDER BY pv.id"

	options := []SellableOption{}
	if err := l.db.SelectContext(ctx, &options, query, args...); err != nil {
		return nil, fmt.Errorf("list sellable: %w", err)
	}
	return options, nil
}

// IntakeLine is one product lot on a purchase. Serialized pieces (phones) list
// one serial per piece and become one variation each; bulk lots become a
// single variation carrying the whole quantity.
type IntakeLine struct {
	ProductID     int64    `json:"product_id"`
	PurchasePrice float64  `json:"purchase_price"`
	Quantity      int64    `json:"quantity"`
	Serials       []string `json:"serials,omitempty"`
}

type IntakeInput struct {
	SupplierID      int64
	TransactionDate string
	FinalizedBy     int64
	Lines           []IntakeLine
}

// Intake records a purchase transaction and creates its purchase variations,
// all in one transaction. This is the only way stock enters the system.
func (l *Ledger) Intake(ctx context.Context, in IntakeInput) (*domain.PurchaseTransaction, error) {
	if err := validateIntake(in); err != nil {
		return nil, err
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin intake: %w", err)
	}
	defer tx.Rollback()

	var supplierOK bool
	if err := tx.GetContext(ctx, &supplierOK,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND type = $2)`,
		in.SupplierID, domain.UserTypeSupplier); err != nil {
		return nil, fmt.Errorf("check supplier: %w", err)
	}
	if !supplierOK {
		return nil, fmt.Errorf("%w: supplier %d", domain.ErrNotFound, in.SupplierID)
	}

	pt := &domain.PurchaseTransaction{
		Status:          "Final",
		PaymentStatus:   "Due",
		TransactionDate: in.TransactionDate,
		SupplierID:      in.SupplierID,
		FinalizedBy:     in.FinalizedBy,
	}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO purchase_transactions (status, payment_status, transaction_date, supplier_id, finalized_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, finalized_at`,
		pt.Status, pt.PaymentStatus, pt.TransactionDate, pt.SupplierID, pt.FinalizedBy,
	).Scan(&pt.ID, &pt.FinalizedAt)
	if err != nil {
		return nil, fmt.Errorf("insert purchase transaction: %w", err)
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

		if len(line.Serials) > 0 {
			for _, serial := range line.Serials {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO purchase_variations
					(purchase_transaction_id, product_id, purchase_price, quantity_purchased, quantity_available, serial)
					VALUES ($1, $2, $3, 1, 1, $4)`,
					pt.ID, line.ProductID, line.PurchasePrice, serial); err != nil {
					return nil, fmt.Errorf("insert serialized variation: %w", err)
				}
			}
		} else {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO purchase_variations
				(purchase_transaction_id, product_id, purchase_price, quantity_purchased, quantity_available)
				VALUES ($1, $2, $3, $4, $5)`,
				pt.ID, line.ProductID, line.PurchasePrice, line.Quantity, line.Quantity); err != nil {
				return nil, fmt.Errorf("insert variation: %w", err)
			}
		}
		amount += line.PurchasePrice * float64(line.Quantity)
	}

	pt.InvoiceNo = fmt.Sprintf("Purchase#%d", pt.ID+1000)
	pt.Amount = amount
	if _, err := tx.ExecContext(ctx,
		`UPDATE purchase_transactions SET invoice_no = $1, amount = $2 WHERE id = $3`,
		pt.InvoiceNo, pt.Amount, pt.ID); err != nil {
		return nil, fmt.Errorf("finalize purchase transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit intake: %w", err)
	}
	return pt, nil
}

func validateIntake(in IntakeInput) error {
	if in.SupplierID <= 0 {
		return fmt.Errorf("%w: please select the supplier", domain.ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", in.TransactionDate); err != nil {
		return fmt.Errorf("%w: please specify a valid transaction date", domain.ErrValidation)
	}
	if in.FinalizedBy <= 0 {
		return fmt.Errorf("%w: missing finalizing user", domain.ErrValidation)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: purchase must contain at least one line", domain.ErrValidation)
	}
	for i, line := range in.Lines {
		if line.ProductID <= 0 {
			return fmt.Errorf("%w: line %d: product is required", domain.ErrValidation, i+1)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("%w: line %d: quantity must be at least 1", domain.ErrValidation, i+1)
		}
		if line.PurchasePrice < 0 {
			return fmt.Errorf("%w: line %d: purchase price cannot be negative", domain.ErrValidation, i+1)
		}
		if len(line.Serials) > 0 && int64(len(line.Serials)) != line.Quantity {
			return fmt.Errorf("%w: line %d: serial count must match quantity", domain.ErrValidation, i+1)
		}
	}
	return nil
}
