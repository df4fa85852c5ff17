package store

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/dukerupert/familycart/internal/images"
	"github.com/dukerupert/familycart/internal/model"
)

// --- Product methods ---

func scanProduct(sc scanner) (*model.Product, error) {
	var p model.Product
	var nameHe, imagePath, notes, catName, catNameHe sql.NullString
	var catID sql.NullInt64

	err := sc.Scan(
		&p.ID, &p.Name, &nameHe, &catID, &p.DefaultUnit, &p.DefaultQuantity,
		&imagePath, &notes, &p.CreatedAt, &catName, &catNameHe,
	)
	if err != nil {
		return nil, err
	}
	p.NameHe = nameHe.String
	p.Notes = notes.String
	p.ImagePath = stringPtr(imagePath)
	p.CategoryName = stringPtr(catName)
	p.CategoryNameHe = stringPtr(catNameHe)
	// A stale id with no matching category reads as unassigned.
	if catID.Valid && catName.Valid {
		p.CategoryID = &catID.Int64
	}
	return &p, nil
}

const productSelect = `SELECT p.id, p.name, p.name_he, p.category_id, p.default_unit, p.default_quantity,
	p.image_path, p.notes, p.created_at, c.name, c.name_he
	FROM products p
	LEFT JOIN categories c ON p.category_id = c.id`

// ListProducts returns products ordered by category rank, then name.
// Unassigned products sort last.
func (s *CatalogStore) ListProducts(f model.ProductFilter) ([]model.Product, error) {
	var conds []string
	var args []any
	if f.CategoryID != nil {
		conds = append(conds, `p.category_id = ?`)
		args = append(args, *f.CategoryID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		conds = append(conds, `(p.name LIKE ? OR p.name_he LIKE ?)`)
		like := "%" + search + "%"
		args = append(args, like, like)
	}

	query := productSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY c.sort_order IS NULL, c.sort_order, p.name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *CatalogStore) GetProduct(id int64) (*model.Product, error) {
	return getProduct(s.db, id)
}

func getProduct(q querier, id int64) (*model.Product, error) {
	p, err := scanProduct(q.QueryRow(productSelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// CreateProduct inserts a catalog entry. At least one of name and name_he
// is required; name falls back to name_he.
func (s *CatalogStore) CreateProduct(in model.ProductInput) (*model.Product, error) {
	name, nameHe := trimmed(in.Name), trimmed(in.NameHe)
	if name == "" && nameHe == "" {
		return nil, invalid("name", "name is required")
	}
	if name == "" {
		name = nameHe
	}
	unit := trimmed(in.DefaultUnit)
	if unit == "" {
		unit = model.DefaultUnit
	}
	qty := 1.0
	if in.DefaultQuantity != nil {
		if *in.DefaultQuantity <= 0 {
			return nil, invalid("default_quantity", "must be positive")
		}
		qty = *in.DefaultQuantity
	}
	catID, err := s.categoryRef(in.CategoryID)
	if err != nil {
		return nil, err
	}

	res, err := s.db.Exec(
		`INSERT INTO products (name, name_he, category_id, default_unit, default_quantity, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		name, nullString(nameHe), catID, unit, qty, nullString(trimmed(in.Notes)),
	)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetProduct(id)
}

// categoryRef resolves a requested category id. Zero means none.
func (s *CatalogStore) categoryRef(id *int64) (sql.NullInt64, error) {
	if id == nil || *id == 0 {
		return sql.NullInt64{}, nil
	}
	if _, err := s.GetCategory(*id); err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: *id, Valid: true}, nil
}

// UpdateProduct merges the non-nil fields of in. An empty name or unit
// does not overwrite the stored value; category_id 0 clears the category.
func (s *CatalogStore) UpdateProduct(id int64, in model.ProductInput) (*model.Product, error) {
	p, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	if v := trimmed(in.Name); v != "" {
		p.Name = v
	}
	if in.NameHe != nil {
		p.NameHe = trimmed(in.NameHe)
	}
	if v := trimmed(in.DefaultUnit); v != "" {
		p.DefaultUnit = v
	}
	if in.DefaultQuantity != nil {
		if *in.DefaultQuantity <= 0 {
			return nil, invalid("default_quantity", "must be positive")
		}
		p.DefaultQuantity = *in.DefaultQuantity
	}
	if in.Notes != nil {
		p.Notes = trimmed(in.Notes)
	}
	catID := nullInt64(p.CategoryID)
	if in.CategoryID != nil {
		if catID, err = s.categoryRef(in.CategoryID); err != nil {
			return nil, err
		}
	}

	_, err = s.db.Exec(
		`UPDATE products SET name = ?, name_he = ?, category_id = ?, default_unit = ?, default_quantity = ?, notes = ? WHERE id = ?`,
		p.Name, nullString(p.NameHe), catID, p.DefaultUnit, p.DefaultQuantity, nullString(p.Notes), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.GetProduct(id)
}

// DeleteProduct removes the product row, then its image. List items that
// referenced the product keep their snapshot and lose the link.
func (s *CatalogStore) DeleteProduct(ctx context.Context, id int64) error {
	p, err := s.GetProduct(id)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if err := checkAffected(res, fmt.Sprintf("product %d", id)); err != nil {
		return err
	}
	if p.ImagePath != nil && s.images != nil {
		if err := s.images.Delete(ctx, *p.ImagePath); err != nil {
			return fmt.Errorf("release image of product %d: %w", id, err)
		}
	}
	return nil
}

// Upload is an image file submitted for a product.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// AttachImage stores a new image for the product and replaces any previous
// one, which is then removed. Every upload is written under a new name,
// identical bytes included. The new object is written before the row is
// updated and removed again if the update fails, so the row never points
// at a missing file. A failure to remove the previous object leaves it
// orphaned; the product itself stays consistent.
func (s *CatalogStore) AttachImage(ctx context.Context, id int64, up Upload) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("attach image: %w: no image store configured", images.ErrStorage)
	}
	ext, err := images.CheckType(up.Filename, up.ContentType)
	if err != nil {
		return "", invalid("image", err.Error())
	}
	p, err := s.GetProduct(id)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, up.Body); err != nil {
		return "", invalid("image", "could not read upload")
	}
	data := buf.Bytes()
	if len(data) == 0 {
		return "", invalid("image", "empty upload")
	}

	newPath, err := s.images.Put(ctx, images.ObjectName(id, ext, data), up.ContentType, data)
	if err != nil {
		return "", fmt.Errorf("attach image: %w", err)
	}
	if _, err := s.db.Exec(`UPDATE products SET image_path = ? WHERE id = ?`, newPath, id); err != nil {
		if derr := s.images.Delete(ctx, newPath); derr != nil {
			s.logger.Warn("remove unreferenced image", "path", newPath, "error", derr)
		}
		return "", fmt.Errorf("set image path: %w", err)
	}

	if p.ImagePath != nil {
		if err := s.images.Delete(ctx, *p.ImagePath); err != nil {
			s.logger.Warn("remove replaced image", "product_id", id, "path", *p.ImagePath, "error", err)
		}
	}
	return newPath, nil
}
