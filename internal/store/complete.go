package store

import (
	"fmt"

	"github.com/dukerupert/familycart/internal/model"
)

// Complete archives an active list: it writes one history record with a
// frozen copy of every item and marks the list completed. All writes
// happen in one transaction, so a failure leaves neither history rows nor
// a status change behind.
func (s *ListStore) Complete(listID int64) (*model.HistoryDetail, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	list, err := getActiveList(tx, listID)
	if err != nil {
		return nil, err
	}
	items, err := listItems(tx, listID)
	if err != nil {
		return nil, err
	}

	completedAt := s.now()
	res, err := tx.Exec(
		`INSERT INTO purchase_history (list_id, list_name, item_count, completed_at) VALUES (?, ?, ?, ?)`,
		list.ID, list.Name, len(items), completedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	historyID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	detail := &model.HistoryDetail{
		PurchaseHistory: model.PurchaseHistory{
			ID:          historyID,
			ListID:      &list.ID,
			ListName:    list.Name,
			ItemCount:   len(items),
			CompletedAt: completedAt,
		},
		Items: make([]model.PurchaseHistoryItem, 0, len(items)),
	}

	for _, it := range items {
		hi := model.PurchaseHistoryItem{
			HistoryID:   historyID,
			ProductName: it.DisplayName(),
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			Checked:     it.Checked,
		}
		res, err := tx.Exec(
			`INSERT INTO purchase_history_items (history_id, product_name, quantity, unit, checked) VALUES (?, ?, ?, ?, ?)`,
			hi.HistoryID, hi.ProductName, hi.Quantity, hi.Unit, int(hi.Checked),
		)
		if err != nil {
			return nil, fmt.Errorf("insert history item: %w", err)
		}
		if hi.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		detail.Items = append(detail.Items, hi)
	}

	res, err = tx.Exec(
		`UPDATE shopping_lists SET status = 'completed', completed_at = ? WHERE id = ? AND status = 'active'`,
		completedAt, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark list completed: %w", err)
	}
	if err := checkAffected(res, fmt.Sprintf("list %d", listID)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return detail, nil
}
