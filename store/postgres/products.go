package postgres

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kustore/storefront/catalog"
	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/store"
)

const productColumns = `id, name, real_price, fake_original_price, image_url,
	images, image_alt_texts, category, subcategory, color, brand, description,
	sizes, in_stock, is_new, created_at, updated_at, measurements,
	stock_quantity, features`

// prefixedProductColumns qualifies every product column with a table alias
// for joined queries.
func prefixedProductColumns(alias string) string {
	cols := strings.Split(productColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// scanProduct reads one products row. All jsonb columns come back as raw
// bytes and are unmarshalled here.
func scanProduct(row interface{ Scan(...interface{}) error }) (catalog.Product, error) {
	var (
		p                      catalog.Product
		images, altTexts       []byte
		sizes, features        []byte
		measurements, stockQty []byte
		subcategory, color     sql.NullString
		brand                  sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.Name, &p.RealPrice, &p.FakeOriginalPrice, &p.ImageURL,
		&images, &altTexts, &p.Category, &subcategory, &color, &brand,
		&p.Description, &sizes, &p.InStock, &p.IsNew, &p.CreatedAt,
		&p.UpdatedAt, &measurements, &stockQty, &features,
	)
	if err != nil {
		return catalog.Product{}, err
	}

	p.Subcategory = subcategory.String
	p.Color = color.String
	p.Brand = brand.String

	if err := scanJSON(images, &p.Images); err != nil {
		return catalog.Product{}, err
	}
	if err := scanJSON(altTexts, &p.ImageAltTexts); err != nil {
		return catalog.Product{}, err
	}
	if err := scanJSON(sizes, &p.Sizes); err != nil {
		return catalog.Product{}, err
	}
	if err := scanJSON(measurements, &p.Measurements); err != nil {
		return catalog.Product{}, err
	}
	if err := scanJSON(stockQty, &p.StockQuantity); err != nil {
		return catalog.Product{}, err
	}
	if err := scanJSON(features, &p.Features); err != nil {
		return catalog.Product{}, err
	}

	return p, nil
}

// Products returns every product, newest first.
func (p *Postgres) Products() ([]catalog.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at DESC`, productColumns)

	rows, err := p.db.Query(query)
	if err != nil {
		return nil, wrapError(err, "SELECT", "products")
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		prod, err := scanProduct(rows)
		if err != nil {
			return nil, wrapError(err, "SELECT", "products")
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "SELECT", "products")
	}
	return products, nil
}

// ProductByID fetches one product, store.ErrNotFound when missing.
func (p *Postgres) ProductByID(id string) (catalog.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	prod, err := scanProduct(p.db.QueryRow(query, id))
	if err != nil {
		return catalog.Product{}, notFound(err)
	}
	return prod, nil
}

// SearchProducts matches an exact id or a case-insensitive name substring.
func (p *Postgres) SearchProducts(term string, limit int) ([]catalog.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT %s FROM products
		WHERE id::text = $1 OR name ILIKE '%%' || $1 || '%%'
		ORDER BY created_at DESC LIMIT $2`, productColumns)

	rows, err := p.db.Query(query, strings.TrimSpace(term), limit)
	if err != nil {
		return nil, wrapError(err, "SELECT", "products")
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		prod, err := scanProduct(rows)
		if err != nil {
			return nil, wrapError(err, "SELECT", "products")
		}
		products = append(products, prod)
	}
	return products, rows.Err()
}

// InsertProduct persists a new product and fills in the generated id and
// timestamps.
func (p *Postgres) InsertProduct(prod *catalog.Product) error {
	if prod.ID == "" {
		prod.ID = uuid.NewString()
	}

	images, err := jsonValue(prod.Images)
	if err != nil {
		return err
	}
	altTexts, err := jsonValue(prod.ImageAltTexts)
	if err != nil {
		return err
	}
	sizes, err := jsonValue(prod.Sizes)
	if err != nil {
		return err
	}
	measurements, err := jsonValue(prod.Measurements)
	if err != nil {
		return err
	}
	stockQty, err := jsonValue(prod.StockQuantity)
	if err != nil {
		return err
	}
	features, err := jsonValue(prod.Features)
	if err != nil {
		return err
	}

	query := `INSERT INTO products (id, name, real_price, fake_original_price,
		image_url, images, image_alt_texts, category, subcategory, color,
		brand, description, sizes, in_stock, is_new, measurements,
		stock_quantity, features)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18)
		RETURNING created_at, updated_at`

	err = p.db.QueryRow(query,
		prod.ID, prod.Name, prod.RealPrice, prod.FakeOriginalPrice,
		prod.ImageURL, images, altTexts, prod.Category,
		nullString(prod.Subcategory), nullString(prod.Color),
		nullString(prod.Brand), prod.Description, sizes, prod.InStock,
		prod.IsNew, measurements, stockQty, features,
	).Scan(&prod.CreatedAt, &prod.UpdatedAt)
	if err != nil {
		return wrapError(err, "INSERT", "products")
	}

	p.logger.Info("product inserted",
		logging.String("id", prod.ID),
		logging.String("name", prod.Name),
	)
	return nil
}

// updatableProductColumns guards UpdateProductFields against arbitrary
// column names reaching the SQL text.
var updatableProductColumns = map[string]bool{
	"name":                true,
	"real_price":          true,
	"fake_original_price": true,
	"image_url":           true,
	"images":              true,
	"image_alt_texts":     true,
	"category":            true,
	"subcategory":         true,
	"color":               true,
	"brand":               true,
	"description":         true,
	"sizes":               true,
	"in_stock":            true,
	"is_new":              true,
	"measurements":        true,
	"stock_quantity":      true,
	"features":            true,
}

// jsonProductColumns are the columns whose values must be marshalled before
// binding.
var jsonProductColumns = map[string]bool{
	"images":          true,
	"image_alt_texts": true,
	"sizes":           true,
	"measurements":    true,
	"stock_quantity":  true,
	"features":        true,
}

// UpdateProductFields patches the named columns of one product. Columns are
// applied in sorted order so the generated SQL is deterministic.
func (p *Postgres) UpdateProductFields(id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableProductColumns[col] {
			return fmt.Errorf("%w: column '%s' is not updatable", ErrQueryFailed, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+1)
	for i, col := range columns {
		val := fields[col]
		if jsonProductColumns[col] {
			jv, err := jsonValue(val)
			if err != nil {
				return err
			}
			val = jv
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, val)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	result, err := p.db.Exec(query, args...)
	if err != nil {
		return wrapError(err, "UPDATE", "products")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapError(err, "UPDATE", "products")
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetProductVisibility toggles the in_stock flag.
func (p *Postgres) SetProductVisibility(id string, inStock bool) error {
	return p.UpdateProductFields(id, map[string]interface{}{"in_stock": inStock})
}

// InsertMeasurements persists garment measurements for a product's sizes.
func (p *Postgres) InsertMeasurements(ms []catalog.Measurement) error {
	if len(ms) == 0 {
		return nil
	}

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTxFailed, err)
	}
	defer tx.Rollback()

	query := `INSERT INTO measurements (id, product_id, size, measurement_a,
		measurement_b, measurement_c, measurement_d)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i := range ms {
		m := &ms[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		_, err := tx.Exec(query, m.ID, m.ProductID, m.Size,
			m.MeasurementA, m.MeasurementB, m.MeasurementC, m.MeasurementD)
		if err != nil {
			return wrapError(err, "INSERT", "measurements")
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrTxFailed, err)
	}
	return nil
}

// MeasurementsFor returns the measurement rows of one product.
func (p *Postgres) MeasurementsFor(productID string) ([]catalog.Measurement, error) {
	query := `SELECT id, product_id, size, measurement_a, measurement_b,
		measurement_c, measurement_d
		FROM measurements WHERE product_id = $1 ORDER BY size`

	rows, err := p.db.Query(query, productID)
	if err != nil {
		return nil, wrapError(err, "SELECT", "measurements")
	}
	defer rows.Close()

	var ms []catalog.Measurement
	for rows.Next() {
		var m catalog.Measurement
		err := rows.Scan(&m.ID, &m.ProductID, &m.Size,
			&m.MeasurementA, &m.MeasurementB, &m.MeasurementC, &m.MeasurementD)
		if err != nil {
			return nil, wrapError(err, "SELECT", "measurements")
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}
