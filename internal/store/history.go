package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/dukerupert/familycart/internal/model"
	"github.com/dukerupert/familycart/internal/shopping"
)

// HistoryStore reads and deletes purchase history. Records are only
// created by ListStore.Complete and never modified.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func scanHistory(sc scanner) (*model.PurchaseHistory, error) {
	var h model.PurchaseHistory
	var listID sql.NullInt64
	if err := sc.Scan(&h.ID, &listID, &h.ListName, &h.ItemCount, &h.CompletedAt); err != nil {
		return nil, err
	}
	h.ListID = int64Ptr(listID)
	return &h, nil
}

const historyCols = `id, list_id, list_name, item_count, completed_at`

// List returns all records newest first.
func (s *HistoryStore) List() ([]model.PurchaseHistory, error) {
	rows, err := s.db.Query(`SELECT ` + historyCols + ` FROM purchase_history ORDER BY completed_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []model.PurchaseHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, *h)
	}
	return records, rows.Err()
}

func (s *HistoryStore) Get(id int64) (*model.HistoryDetail, error) {
	h, err := scanHistory(s.db.QueryRow(`SELECT `+historyCols+` FROM purchase_history WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	items, err := s.items(id)
	if err != nil {
		return nil, err
	}
	return &model.HistoryDetail{PurchaseHistory: *h, Items: items}, nil
}

func (s *HistoryStore) items(historyID int64) ([]model.PurchaseHistoryItem, error) {
	rows, err := s.db.Query(
		`SELECT id, history_id, product_name, quantity, unit, checked FROM purchase_history_items WHERE history_id = ? ORDER BY id`,
		historyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list history items: %w", err)
	}
	defer rows.Close()

	items := []model.PurchaseHistoryItem{}
	for rows.Next() {
		var hi model.PurchaseHistoryItem
		var checked int
		if err := rows.Scan(&hi.ID, &hi.HistoryID, &hi.ProductName, &hi.Quantity, &hi.Unit, &checked); err != nil {
			return nil, fmt.Errorf("scan history item: %w", err)
		}
		if hi.Checked, err = shopping.ParseState(checked); err != nil {
			return nil, err
		}
		items = append(items, hi)
	}
	return items, rows.Err()
}

// Delete removes a record and its items. The archived list row is not
// touched.
func (s *HistoryStore) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM purchase_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return checkAffected(res, fmt.Sprintf("history %d", id))
}

// Items returns every history item with its record's name and date,
// newest purchase first.
func (s *HistoryStore) Items() ([]model.HistoryItemEntry, error) {
	rows, err := s.db.Query(`
		SELECT hi.id, hi.history_id, hi.product_name, hi.quantity, hi.unit, hi.checked,
		       h.list_name, h.completed_at
		FROM purchase_history_items hi
		JOIN purchase_history h ON h.id = hi.history_id
		ORDER BY h.completed_at DESC, h.id DESC, hi.id`)
	if err != nil {
		return nil, fmt.Errorf("list history items: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryItemEntry
	for rows.Next() {
		var e model.HistoryItemEntry
		var checked int
		err := rows.Scan(&e.ID, &e.HistoryID, &e.ProductName, &e.Quantity, &e.Unit, &checked, &e.ListName, &e.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("scan history item: %w", err)
		}
		if e.Checked, err = shopping.ParseState(checked); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ByItem groups all history items by product name, sorted by name.
func (s *HistoryStore) ByItem() ([]model.ItemHistory, error) {
	entries, err := s.Items()
	if err != nil {
		return nil, err
	}
	return GroupByItem(entries), nil
}

// GroupByItem keeps each group's entries in their input order.
func GroupByItem(entries []model.HistoryItemEntry) []model.ItemHistory {
	index := map[string]int{}
	groups := []model.ItemHistory{}
	for _, e := range entries {
		i, ok := index[e.ProductName]
		if !ok {
			i = len(groups)
			index[e.ProductName] = i
			groups = append(groups, model.ItemHistory{ProductName: e.ProductName})
		}
		groups[i].Entries = append(groups[i].Entries, e)
		groups[i].Count++
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].ProductName < groups[b].ProductName })
	return groups
}

// LatestMissing returns the newest record and those of its items that
// were not found, for re-adding to the next list.
func (s *HistoryStore) LatestMissing() (*model.HistoryDetail, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM purchase_history ORDER BY completed_at DESC, id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no history: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest history: %w", err)
	}
	detail, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	missing := []model.PurchaseHistoryItem{}
	for _, it := range detail.Items {
		if it.Checked != shopping.Found && it.ProductName != "" {
			missing = append(missing, it)
		}
	}
	detail.Items = missing
	return detail, nil
}
