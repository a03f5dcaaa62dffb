package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/Tousif070/Point-Of-Sales-Backend/domain"
	"github.com/Tousif070/Point-Of-Sales-Backend/internal/database"
	"github.com/Tousif070/Point-Of-Sales-Backend/internal/inventory"
	"github.com/Tousif070/Point-Of-Sales-Backend/internal/migrations"
)

type fixture struct {
	db           *sqlx.DB
	builder      *Builder
	staffID      int64
	customerID   int64
	supplierID   int64
	productID    int64
	purchaseTxID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := database.Connect("sqlite", ":memory:")
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)

	f := &fixture{db: db, builder: NewBuilder(db, inventory.NewLedger(db))}

	users := []struct {
		first, last, username string
		userType              int
		dest                  *int64
	}{
		{"Tousif", "Akram", "tousif", domain.UserTypeOfficial, &f.staffID},
		{"John", "Doe", "john", domain.UserTypeCustomer, &f.customerID},
		{"Acme", "Traders", "acme", domain.UserTypeSupplier, &f.supplierID},
	}
	for _, u := range users {
		err := db.QueryRowx(`INSERT INTO users (first_name, last_name, username, type) VALUES ($1, $2, $3, $4) RETURNING id`,
			u.first, u.last, u.username, u.userType).Scan(u.dest)
		if err != nil {
			t.Fatalf("seed user %s: %v", u.username, err)
		}
	}

	err := db.QueryRowx(`INSERT INTO products (name, sku) VALUES ('Galaxy S22', 'GS22') RETURNING id`).Scan(&f.productID)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	err = db.QueryRowx(`
		INSERT INTO purchase_transactions (status, payment_status, transaction_date, supplier_id, finalized_by)
		VALUES ('Final', 'Due', '2024-01-10', $1, $2) RETURNING id`,
		f.supplierID, f.staffID).Scan(&f.purchaseTxID)
	if err != nil {
		t.Fatalf("seed purchase transaction: %v", err)
	}

	return f
}

func (f *fixture) addUnit(t *testing.T, price float64, available int64) int64 {
	t.Helper()
	var id int64
	err := f.db.QueryRowx(`
		INSERT INTO purchase_variations
		(purchase_transaction_id, product_id, purchase_price, quantity_purchased, quantity_available)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		f.purchaseTxID, f.productID, price, available, available).Scan(&id)
	if err != nil {
		t.Fatalf("seed purchase variation: %v", err)
	}
	return id
}

func (f *fixture) counters(t *testing.T, id int64) (available, sold int64) {
	t.Helper()
	err := f.db.QueryRowx(`SELECT quantity_available, quantity_sold FROM purchase_variations WHERE id = $1`, id).
		Scan(&available, &sold)
	if err != nil {
		t.Fatalf("read counters: %v", err)
	}
	return available, sold
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := f.db.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func (f *fixture) saleInput(lines ...Line) CreateSaleInput {
	return CreateSaleInput{
		CustomerID:      f.customerID,
		TransactionDate: "2024-03-15",
		FinalizedBy:     f.staffID,
		Lines:           lines,
	}
}

func TestCreateSale(t *testing.T) {
	f := newFixture(t)
	unitID := f.addUnit(t, 250, 5)

	st, err := f.builder.CreateSale(context.Background(),
		f.saleInput(Line{ProductID: f.productID, PurchaseVariationID: unitID, Quantity: 3, SellingPrice: 100}))
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if st.Status != "Final" || st.PaymentStatus != "Due" {
		t.Fatalf("unexpected statuses: %+v", st)
	}
	if st.Amount != 300 {
		t.Fatalf("amount = %v, want 300", st.Amount)
	}
	if st.InvoiceNo != fmt.Sprintf("Sale#%d", st.ID+1000) {
		t.Fatalf("invoice no = %q, want derived from id %d", st.InvoiceNo, st.ID)
	}
	if st.FinalizedAt == "" {
		t.Fatalf("finalized_at not set")
	}

	available, sold := f.counters(t, unitID)
	if available != 2 || sold != 3 {
		t.Fatalf("counters = %d/%d, want 2/3", available, sold)
	}

	var line domain.SaleVariation
	err = f.db.QueryRowx(`
		SELECT quantity, return_quantity, selling_price, purchase_price
		FROM sale_variations WHERE sale_transaction_id = $1`, st.ID).
		Scan(&line.Quantity, &line.ReturnQuantity, &line.SellingPrice, &line.PurchasePrice)
	if err != nil {
		t.Fatalf("read sale variation: %v", err)
	}
	if line.Quantity != 3 || line.ReturnQuantity != 0 {
		t.Fatalf("line quantities = %d/%d, want 3/0", line.Quantity, line.ReturnQuantity)
	}
	if line.SellingPrice != 100 || line.PurchasePrice != 250 {
		t.Fatalf("line prices = %v/%v, want selling 100 and snapshot 250", line.SellingPrice, line.PurchasePrice)
	}
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	f := newFixture(t)
	unitID := f.addUnit(t, 250, 2)

	_, err := f.builder.CreateSale(context.Background(),
		f.saleInput(Line{ProductID: f.productID, PurchaseVariationID: unitID, Quantity: 5, SellingPrice: 100}))
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("error = %v, want ErrInsufficientStock", err)
	}

	available, sold := f.counters(t, unitID)
	if available != 2 || sold != 0 {
		t.Fatalf("counters = %d/%d, want unchanged 2/0", available, sold)
	}
	if n := f.count(t, "sale_transactions"); n != 0 {
		t.Fatalf("%d sale transactions persisted after failure", n)
	}
	if n := f.count(t, "sale_variations"); n != 0 {
		t.Fatalf("%d sale variations persisted after failure", n)
	}
}

func TestCreateSaleQuantityBelowOne(t *testing.T) {
	f := newFixture(t)
	unitID := f.addUnit(t, 250, 2)

	_, err := f.builder.CreateSale(context.Background(),
		f.saleInput(Line{ProductID: f.productID, PurchaseVariationID: unitID, Quantity: 0, SellingPrice: 100}))
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("error = %v, want ErrInsufficientStock", err)
	}
}

func TestCreateSaleRollsBackEarlierLines(t *testing.T) {
	f := newFixture(t)
	okUnit := f.addUnit(t, 100, 5)
	shortUnit := f.addUnit(t, 100, 1)

	_, err := f.builder.CreateSale(context.Background(), f.saleInput(
		Line{ProductID: f.productID, PurchaseVariationID: okUnit, Quantity: 2, SellingPrice: 150},
		Line{ProductID: f.productID, PurchaseVariationID: shortUnit, Quantity: 4, SellingPrice: 150},
	))
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("error = %v, want ErrInsufficientStock", err)
	}

	// The satisfiable first line must have been rolled back too.
	available, sold := f.counters(t, okUnit)
	if available != 5 || sold != 0 {
		t.Fatalf("first line counters = %d/%d, want unchanged 5/0", available, sold)
	}
	available, sold = f.counters(t, shortUnit)
	if available != 1 || sold != 0 {
		t.Fatalf("second line counters = %d/%d, want unchanged 1/0", available, sold)
	}
	if n := f.count(t, "sale_transactions"); n != 0 {
		t.Fatalf("%d sale transactions persisted after rollback", n)
	}
}

func TestCreateSaleValidation(t *testing.T) {
	f := newFixture(t)
	unitID := f.addUnit(t, 250, 5)
	line := Line{ProductID: f.productID, PurchaseVariationID: unitID, Quantity: 1, SellingPrice: 100}

	cases := []struct {
		name string
		in   CreateSaleInput
	}{
		{"no lines", f.saleInput()},
		{"no customer", CreateSaleInput{TransactionDate: "2024-03-15", FinalizedBy: f.staffID, Lines: []Line{line}}},
		{"bad date", CreateSaleInput{CustomerID: f.customerID, TransactionDate: "15/03/2024", FinalizedBy: f.staffID, Lines: []Line{line}}},
		{"negative price", f.saleInput(Line{ProductID: f.productID, PurchaseVariationID: unitID, Quantity: 1, SellingPrice: -5})},
		{"no product", f.saleInput(Line{PurchaseVariationID: unitID, Quantity: 1, SellingPrice: 100})},
	}
	for _, tc := range cases {
		if _, err := f.builder.CreateSale(context.Background(), tc.in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%s: error = %v, want ErrValidation", tc.name, err)
		}
	}

	available, sold := f.counters(t, unitID)
	if available != 5 || sold != 0 {
		t.Fatalf("counters = %d/%d, validation must not mutate stock", available, sold)
	}
}

func TestCreateSaleUnknownReferences(t *testing.T) {
	f := newFixture(t)
	unitID := f.addUnit(t, 250, 5)

	in := f.saleInput(Line{ProductID: f.productID, PurchaseVariationID: unitID, Quantity: 1, SellingPrice: 100})
	in.CustomerID = 9999
	if _, err := f.builder.CreateSale(context.Background(), in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown customer error = %v, want ErrNotFound", err)
	}

	if _, err := f.builder.CreateSale(context.Background(),
		f.saleInput(Line{ProductID: 9999, PurchaseVariationID: unitID, Quantity: 1, SellingPrice: 100})); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown product error = %v, want ErrNotFound", err)
	}

	if _, err := f.builder.CreateSale(context.Background(),
		f.saleInput(Line{ProductID: f.productID, PurchaseVariationID: 9999, Quantity: 1, SellingPrice: 100})); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown variation error = %v, want ErrNotFound", err)
	}
}

func TestCreateSaleAmountSumsAllLines(t *testing.T) {
	f := newFixture(t)
	first := f.addUnit(t, 250, 5)
	second := f.addUnit(t, 30, 10)

	st, err := f.builder.CreateSale(context.Background(), f.saleInput(
		Line{ProductID: f.productID, PurchaseVariationID: first, Quantity: 2, SellingPrice: 400},
		Line{ProductID: f.productID, PurchaseVariationID: second, Quantity: 3, SellingPrice: 50},
	))
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if want := float64(2*400 + 3*50); st.Amount != want {
		t.Fatalf("amount = %v, want %v", st.Amount, want)
	}

	var stored float64
	if err := f.db.Get(&stored, `SELECT amount FROM sale_transactions WHERE id = $1`, st.ID); err != nil {
		t.Fatalf("read amount: %v", err)
	}
	if stored != st.Amount {
		t.Fatalf("stored amount %v differs from returned %v", stored, st.Amount)
	}
}

func TestInvoiceNumbersUniquePerTransaction(t *testing.T) {
	f := newFixture(t)
	unitID := f.addUnit(t, 10, 10)

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		st, err := f.builder.CreateSale(context.Background(),
			f.saleInput(Line{ProductID: f.productID, PurchaseVariationID: unitID, Quantity: 1, SellingPrice: 20}))
		if err != nil {
			t.Fatalf("create sale %d: %v", i, err)
		}
		if seen[st.InvoiceNo] {
			t.Fatalf("invoice no %q repeated", st.InvoiceNo)
		}
		seen[st.InvoiceNo] = true
		if st.InvoiceNo != fmt.Sprintf("Sale#%d", st.ID+1000) {
			t.Fatalf("invoice no %q not derived from id %d", st.InvoiceNo, st.ID)
		}
	}
}

func TestLinesNet(t *testing.T) {
	f := newFixture(t)
	first := f.addUnit(t, 250, 5)
	second := f.addUnit(t, 30, 10)

	st, err := f.builder.CreateSale(context.Background(), f.saleInput(
		Line{ProductID: f.productID, PurchaseVariationID: first, Quantity: 3, SellingPrice: 400},
		Line{ProductID: f.productID, PurchaseVariationID: second, Quantity: 2, SellingPrice: 50},
	))
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	// One partial and one full return.
	if _, err := f.db.Exec(`UPDATE sale_variations SET return_quantity = 1 WHERE sale_transaction_id = $1 AND purchase_variation_id = $2`,
		st.ID, first); err != nil {
		t.Fatalf("set partial return: %v", err)
	}
	if _, err := f.db.Exec(`UPDATE sale_variations SET return_quantity = 2 WHERE sale_transaction_id = $1 AND purchase_variation_id = $2`,
		st.ID, second); err != nil {
		t.Fatalf("set full return: %v", err)
	}

	lines, err := f.builder.LinesNet(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("lines net: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d net lines, want fully returned line excluded", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("net quantity = %d, want 3-1=2", lines[0].Quantity)
	}
	if lines[0].InvoiceNo != st.InvoiceNo {
		t.Fatalf("invoice no = %q, want %q", lines[0].InvoiceNo, st.InvoiceNo)
	}

	if _, err := f.builder.LinesNet(context.Background(), 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown sale error = %v, want ErrNotFound", err)
	}
}

func TestListSummaries(t *testing.T) {
	f := newFixture(t)
	unitID := f.addUnit(t, 250, 5)

	st, err := f.builder.CreateSale(context.Background(),
		f.saleInput(Line{ProductID: f.productID, PurchaseVariationID: unitID, Quantity: 2, SellingPrice: 300}))
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	// A later return lowers the payable but never rewrites amount.
	if _, err := f.db.Exec(`INSERT INTO sale_return_transactions (sale_transaction_id, amount) VALUES ($1, $2)`,
		st.ID, 100.0); err != nil {
		t.Fatalf("insert return: %v", err)
	}

	summaries, err := f.builder.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	s := summaries[0]
	if s.Customer != "John Doe" {
		t.Fatalf("customer = %q, want John Doe", s.Customer)
	}
	if s.TotalItems != 2 {
		t.Fatalf("total items = %d, want 2", s.TotalItems)
	}
	if s.TotalPayable != 500 {
		t.Fatalf("total payable = %v, want 600-100=500", s.TotalPayable)
	}
	if s.FinalizedBy != "Tousif" {
		t.Fatalf("finalized by = %q, want Tousif", s.FinalizedBy)
	}

	var amount float64
	if err := f.db.Get(&amount, `SELECT amount FROM sale_transactions WHERE id = $1`, st.ID); err != nil {
		t.Fatalf("read amount: %v", err)
	}
	if amount != 600 {
		t.Fatalf("amount rewritten to %v, want original 600", amount)
	}
}

func TestConcurrentSalesSingleWinner(t *testing.T) {
	f := newFixture(t)
	unitID := f.addUnit(t, 250, 4)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.builder.CreateSale(context.Background(),
				f.saleInput(Line{ProductID: f.productID, PurchaseVariationID: unitID, Quantity: 4, SellingPrice: 100}))
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrInsufficientStock):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("successes=%d conflicts=%d, want exactly one winner", successes, conflicts)
	}

	available, sold := f.counters(t, unitID)
	if available != 0 || sold != 4 {
		t.Fatalf("final counters = %d/%d, want 0/4", available, sold)
	}
	if available < 0 {
		t.Fatalf("quantity_available went negative")
	}
}
