package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/familycart/internal/images"
	"github.com/dukerupert/familycart/internal/model"
)

// CatalogStore owns categories and products.
type CatalogStore struct {
	db     *sql.DB
	images images.Store
	logger *slog.Logger
}

func NewCatalogStore(db *sql.DB, imgs images.Store, logger *slog.Logger) *CatalogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogStore{db: db, images: imgs, logger: logger}
}

// --- Category methods ---

func scanCategory(sc scanner) (*model.Category, error) {
	var c model.Category
	var nameHe sql.NullString
	if err := sc.Scan(&c.ID, &c.Name, &nameHe, &c.SortOrder); err != nil {
		return nil, err
	}
	c.NameHe = nameHe.String
	return &c, nil
}

const categoryCols = `id, name, name_he, sort_order`

func (s *CatalogStore) ListCategories() ([]model.Category, error) {
	rows, err := s.db.Query(`SELECT ` + categoryCols + ` FROM categories ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *CatalogStore) GetCategory(id int64) (*model.Category, error) {
	c, err := scanCategory(s.db.QueryRow(`SELECT `+categoryCols+` FROM categories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// FindCategoryByName matches either the English or the Hebrew name,
// case-insensitively. It returns ErrNotFound when nothing matches.
func (s *CatalogStore) FindCategoryByName(name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	row := s.db.QueryRow(
		`SELECT `+categoryCols+` FROM categories WHERE lower(name) = lower(?) OR name_he = ? ORDER BY sort_order LIMIT 1`,
		name, name,
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (s *CatalogStore) CreateCategory(in model.CategoryInput) (*model.Category, error) {
	var name string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	var nameHe string
	if in.NameHe != nil {
		nameHe = strings.TrimSpace(*in.NameHe)
	}
	sortOrder := 0
	if in.SortOrder != nil {
		sortOrder = *in.SortOrder
	}

	res, err := s.db.Exec(
		`INSERT INTO categories (name, name_he, sort_order) VALUES (?, ?, ?)`,
		name, nullString(nameHe), sortOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetCategory(id)
}

// UpdateCategory merges the non-nil fields of in into the category.
func (s *CatalogStore) UpdateCategory(id int64, in model.CategoryInput) (*model.Category, error) {
	existing, err := s.GetCategory(id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			existing.Name = name
		}
	}
	if in.NameHe != nil {
		existing.NameHe = strings.TrimSpace(*in.NameHe)
	}
	if in.SortOrder != nil {
		existing.SortOrder = *in.SortOrder
	}

	_, err = s.db.Exec(
		`UPDATE categories SET name = ?, name_he = ?, sort_order = ? WHERE id = ?`,
		existing.Name, nullString(existing.NameHe), existing.SortOrder, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.GetCategory(id)
}

// DeleteCategory removes a category. Products that referenced it keep
// existing with a null category.
func (s *CatalogStore) DeleteCategory(id int64) error {
	res, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return checkAffected(res, fmt.Sprintf("category %d", id))
}
