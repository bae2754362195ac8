package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one catalog entry. FakeOriginalPrice is a display-only
// "was" price and must stay above RealPrice; RealPrice is the price every
// cart and order computation uses.
type Product struct {
	ID                string                       `json:"id" db:"id"`
	Name              string                       `json:"name" db:"name"`
	RealPrice         decimal.Decimal              `json:"real_price" db:"real_price"`
	FakeOriginalPrice decimal.Decimal              `json:"fake_original_price" db:"fake_original_price"`
	ImageURL          string                       `json:"image_url" db:"image_url"`
	Images            []string                     `json:"images,omitempty" db:"images"`
	ImageAltTexts     []string                     `json:"image_alt_texts,omitempty" db:"image_alt_texts"`
	Category          string                       `json:"category" db:"category"`
	Subcategory       string                       `json:"subcategory,omitempty" db:"subcategory"`
	Color             string                       `json:"color,omitempty" db:"color"`
	Brand             string                       `json:"brand,omitempty" db:"brand"`
	Description       string                       `json:"description" db:"description"`
	Sizes             []string                     `json:"sizes" db:"sizes"`
	InStock           bool                         `json:"in_stock" db:"in_stock"`
	IsNew             bool                         `json:"is_new" db:"is_new"`
	CreatedAt         time.Time                    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at" db:"updated_at"`
	Measurements      map[string]map[string]string `json:"measurements,omitempty" db:"measurements"`
	StockQuantity     map[string]int               `json:"stock_quantity,omitempty" db:"stock_quantity"`
	Features          []string                     `json:"features,omitempty" db:"features"`
}

// TableName implements store.TableStruct.
func (p *Product) TableName() string {
	return "products"
}

// StockFor returns the stock count for a size, zero when unknown.
func (p *Product) StockFor(size string) int {
	if p.StockQuantity == nil {
		return 0
	}
	return p.StockQuantity[size]
}

// AvailableSizes returns the sizes that still have stock.
func (p *Product) AvailableSizes() []string {
	var sizes []string
	for _, s := range p.Sizes {
		if p.StockFor(s) > 0 {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// Measurement is one row of the measurements table: the garment dimensions
// recorded for a product size.
type Measurement struct {
	ID           string   `json:"id" db:"id"`
	ProductID    string   `json:"product_id" db:"product_id"`
	Size         string   `json:"size" db:"size"`
	MeasurementA *float64 `json:"measurement_a,omitempty" db:"measurement_a"`
	MeasurementB *float64 `json:"measurement_b,omitempty" db:"measurement_b"`
	MeasurementC *float64 `json:"measurement_c,omitempty" db:"measurement_c"`
	MeasurementD *float64 `json:"measurement_d,omitempty" db:"measurement_d"`
}

// TableName implements store.TableStruct.
func (m *Measurement) TableName() string {
	return "measurements"
}

// Categories the store sells. The admin bot and promo codes only accept
// these values.
var Categories = []string{"shirts", "sweaters", "jeans", "shorts", "accessories", "shoes"}

// SizesByCategory is the size chart offered per category.
var SizesByCategory = map[string][]string{
	"shirts":      {"XS", "S", "M", "L", "XL", "XXL"},
	"sweaters":    {"XS", "S", "M", "L", "XL", "XXL"},
	"jeans":       {"26", "27", "28", "29", "30", "31", "32", "33", "34", "36", "38"},
	"shorts":      {"XS", "S", "M", "L", "XL", "XXL"},
	"accessories": {"One Size"},
	"shoes":       {"35", "36", "37", "38", "39", "40", "41", "42", "43", "44"},
}

// MeasurementsByCategory lists which measurement labels a category records.
// Accessories carry none.
var MeasurementsByCategory = map[string][]string{
	"shirts":      {"A", "B", "C"},
	"sweaters":    {"A", "B", "C", "D"},
	"jeans":       {"A", "B", "C", "D"},
	"shorts":      {"A", "B", "C"},
	"accessories": {},
	"shoes":       {"A", "B"},
}

// ValidCategory reports whether cat is one of the store categories.
func ValidCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}
