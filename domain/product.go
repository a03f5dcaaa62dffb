package domain

type Product struct {
	ID                int64  `db:"id" json:"id"`
	Name              string `db:"name" json:"name"`
	SKU               string `db:"sku" json:"sku"`
	BrandID           *int64 `db:"brand_id" json:"brand_id,omitempty"`
	ProductCategoryID *int64 `db:"product_category_id" json:"product_category_id,omitempty"`
	ProductModelID    *int64 `db:"product_model_id" json:"product_model_id,omitempty"`
}

type ProductModel struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
