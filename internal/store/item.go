package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/familycart/internal/model"
	"github.com/dukerupert/familycart/internal/shopping"
)

// --- Item methods ---

func scanItem(sc scanner) (*model.ListItem, error) {
	var it model.ListItem
	var productID, catID, catSort sql.NullInt64
	var customName, notes, pName, pNameHe, imagePath, catName, catNameHe sql.NullString
	var checked int

	err := sc.Scan(
		&it.ID, &it.ListID, &productID, &customName, &it.Quantity, &it.Unit,
		&checked, &it.SortOrder, &notes, &it.AddedAt,
		&pName, &pNameHe, &imagePath, &catID, &catName, &catNameHe, &catSort,
	)
	if err != nil {
		return nil, err
	}

	if it.Checked, err = shopping.ParseState(checked); err != nil {
		return nil, err
	}
	it.ProductID = int64Ptr(productID)
	it.CustomName = stringPtr(customName)
	it.Notes = notes.String
	it.ProductName = stringPtr(pName)
	it.ProductNameHe = stringPtr(pNameHe)
	it.ImagePath = stringPtr(imagePath)
	it.CategoryID = int64Ptr(catID)
	it.CategoryName = stringPtr(catName)
	it.CategoryNameHe = stringPtr(catNameHe)
	if catSort.Valid {
		n := int(catSort.Int64)
		it.CategorySort = &n
	}
	return &it, nil
}

const itemSelect = `SELECT li.id, li.list_id, li.product_id, li.custom_name, li.quantity, li.unit,
	li.checked, li.sort_order, li.notes, li.added_at,
	p.name, p.name_he, p.image_path, c.id, c.name, c.name_he, c.sort_order
	FROM list_items li
	LEFT JOIN products p ON li.product_id = p.id
	LEFT JOIN categories c ON p.category_id = c.id`

// listItems orders by category rank with unassigned items last, then by
// the item's own sort order and insertion time.
func listItems(q querier, listID int64) ([]model.ListItem, error) {
	rows, err := q.Query(
		itemSelect+` WHERE li.list_id = ? ORDER BY c.sort_order IS NULL, c.sort_order, li.sort_order, li.added_at, li.id`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.ListItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func getItem(q querier, listID, itemID int64) (*model.ListItem, error) {
	it, err := scanItem(q.QueryRow(itemSelect+` WHERE li.id = ? AND li.list_id = ?`, itemID, listID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d in list %d: %w", itemID, listID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// GetItem returns an item only if it belongs to listID.
func (s *ListStore) GetItem(listID, itemID int64) (*model.ListItem, error) {
	return getItem(s.db, listID, itemID)
}

// AddItem adds a catalog-linked or free-text item to an active list.
// Quantity and unit are copied from the product when not given; the copy
// does not follow later product edits.
func (s *ListStore) AddItem(listID int64, in model.NewItem) (*model.ListItem, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := getActiveList(tx, listID); err != nil {
		return nil, err
	}
	item, err := addItem(tx, listID, in, s.now())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return item, nil
}

// AddItems adds several items in one transaction; any invalid entry
// rejects the whole batch.
func (s *ListStore) AddItems(listID int64, in []model.NewItem) ([]model.ListItem, error) {
	if len(in) == 0 {
		return nil, invalid("items", "at least one item is required")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := getActiveList(tx, listID); err != nil {
		return nil, err
	}
	now := s.now()
	items := make([]model.ListItem, 0, len(in))
	for i, ni := range in {
		item, err := addItem(tx, listID, ni, now)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, *item)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return items, nil
}

func addItem(q querier, listID int64, in model.NewItem, now time.Time) (*model.ListItem, error) {
	customName := trimmed(in.CustomName)
	productID := in.ProductID
	if productID != nil && *productID == 0 {
		productID = nil
	}
	switch {
	case productID != nil && customName != "":
		return nil, invalid("product_id", "give either product_id or custom_name, not both")
	case productID == nil && customName == "":
		return nil, invalid("custom_name", "product_id or custom_name is required")
	}

	qty, unit := 1.0, model.DefaultUnit
	if productID != nil {
		p, err := getProduct(q, *productID)
		if err != nil {
			return nil, err
		}
		qty, unit = p.DefaultQuantity, p.DefaultUnit
	}
	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			return nil, invalid("quantity", "must be positive")
		}
		qty = *in.Quantity
	}
	if u := trimmed(in.Unit); u != "" {
		unit = u
	}

	// max+1 runs inside the caller's transaction with the insert.
	var sortOrder int
	if err := q.QueryRow(`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM list_items WHERE list_id = ?`, listID).Scan(&sortOrder); err != nil {
		return nil, fmt.Errorf("next sort order: %w", err)
	}

	res, err := q.Exec(
		`INSERT INTO list_items (list_id, product_id, custom_name, quantity, unit, sort_order, notes, added_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		listID, nullInt64(productID), nullString(customName), qty, unit, sortOrder, nullString(trimmed(in.Notes)), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return getItem(q, listID, id)
}

// UpdateItem applies a partial update. Writing the current value again is
// accepted and changes nothing.
func (s *ListStore) UpdateItem(listID, itemID int64, patch model.ItemPatch) (*model.ListItem, error) {
	if patch.Empty() {
		return nil, invalid("", "no fields to update")
	}

	var sets []string
	var args []any
	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return nil, invalid("quantity", "must be positive")
		}
		sets = append(sets, "quantity = ?")
		args = append(args, *patch.Quantity)
	}
	if patch.Unit != nil {
		u := strings.TrimSpace(*patch.Unit)
		if u == "" {
			return nil, invalid("unit", "must not be blank")
		}
		sets = append(sets, "unit = ?")
		args = append(args, u)
	}
	if patch.Checked != nil {
		if !patch.Checked.Valid() {
			return nil, invalid("checked", "must be 0, 1 or 2")
		}
		sets = append(sets, "checked = ?")
		args = append(args, int(*patch.Checked))
	}
	if patch.SortOrder != nil {
		sets = append(sets, "sort_order = ?")
		args = append(args, *patch.SortOrder)
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, nullString(strings.TrimSpace(*patch.Notes)))
	}

	if _, err := getActiveList(s.db, listID); err != nil {
		return nil, err
	}
	args = append(args, itemID, listID)
	res, err := s.db.Exec(`UPDATE list_items SET `+strings.Join(sets, ", ")+` WHERE id = ? AND list_id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if err := checkAffected(res, fmt.Sprintf("item %d in list %d", itemID, listID)); err != nil {
		return nil, err
	}
	return s.GetItem(listID, itemID)
}

// ToggleItem applies a shop-mode button press to an item.
func (s *ListStore) ToggleItem(listID, itemID int64, pressed shopping.State) (*model.ListItem, error) {
	if pressed != shopping.Found && pressed != shopping.NotFound {
		return nil, invalid("state", "must be 1 or 2")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := getActiveList(tx, listID); err != nil {
		return nil, err
	}
	item, err := getItem(tx, listID, itemID)
	if err != nil {
		return nil, err
	}
	next := shopping.Toggle(item.Checked, pressed)
	if _, err := tx.Exec(`UPDATE list_items SET checked = ? WHERE id = ?`, int(next), itemID); err != nil {
		return nil, fmt.Errorf("toggle item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	item.Checked = next
	return item, nil
}

func (s *ListStore) RemoveItem(listID, itemID int64) error {
	if _, err := getActiveList(s.db, listID); err != nil {
		return err
	}
	res, err := s.db.Exec(`DELETE FROM list_items WHERE id = ? AND list_id = ?`, itemID, listID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return checkAffected(res, fmt.Sprintf("item %d in list %d", itemID, listID))
}
