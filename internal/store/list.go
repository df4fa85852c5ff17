package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/familycart/internal/model"
	"github.com/dukerupert/familycart/internal/shopping"
)

// ListStore owns shopping lists and their items.
type ListStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// --- List methods ---

func scanList(sc scanner) (*model.ShoppingList, error) {
	var l model.ShoppingList
	var completedAt sql.NullTime
	if err := sc.Scan(&l.ID, &l.Name, &l.Status, &l.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		l.CompletedAt = &completedAt.Time
	}
	return &l, nil
}

const listCols = `id, name, status, created_at, completed_at`

// ListActive returns active lists newest first, with their item counts.
func (s *ListStore) ListActive() ([]model.ListSummary, error) {
	rows, err := s.db.Query(`
		SELECT sl.id, sl.name, sl.status, sl.created_at, sl.completed_at,
		       COUNT(li.id), COALESCE(SUM(CASE WHEN li.checked = 1 THEN 1 ELSE 0 END), 0)
		FROM shopping_lists sl
		LEFT JOIN list_items li ON li.list_id = sl.id
		WHERE sl.status = 'active'
		GROUP BY sl.id
		ORDER BY sl.created_at DESC, sl.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list active lists: %w", err)
	}
	defer rows.Close()

	var lists []model.ListSummary
	for rows.Next() {
		var ls model.ListSummary
		var completedAt sql.NullTime
		err := rows.Scan(&ls.ID, &ls.Name, &ls.Status, &ls.CreatedAt, &completedAt, &ls.ItemCount, &ls.CheckedCount)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		if completedAt.Valid {
			ls.CompletedAt = &completedAt.Time
		}
		lists = append(lists, ls)
	}
	return lists, rows.Err()
}

func (s *ListStore) GetList(id int64) (*model.ShoppingList, error) {
	return getList(s.db, id)
}

func getList(q querier, id int64) (*model.ShoppingList, error) {
	l, err := scanList(q.QueryRow(`SELECT `+listCols+` FROM shopping_lists WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("list %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

// getActiveList fails with ErrConflict when the list has been completed.
func getActiveList(q querier, id int64) (*model.ShoppingList, error) {
	l, err := getList(q, id)
	if err != nil {
		return nil, err
	}
	if l.Status != model.ListActive {
		return nil, fmt.Errorf("list %d is %s: %w", id, l.Status, ErrConflict)
	}
	return l, nil
}

// GetListDetail returns the list with its items and shop-mode progress.
func (s *ListStore) GetListDetail(id int64) (*model.ListDetail, error) {
	l, err := s.GetList(id)
	if err != nil {
		return nil, err
	}
	items, err := listItems(s.db, id)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.ListItem{}
	}
	return &model.ListDetail{ShoppingList: *l, Items: items, Progress: progressOf(items)}, nil
}

func progressOf(items []model.ListItem) shopping.Progress {
	states := make([]shopping.State, len(items))
	for i, it := range items {
		states[i] = it.Checked
	}
	return shopping.ComputeProgress(states)
}

// Progress returns the shop-mode aggregate for a list.
func (s *ListStore) Progress(id int64) (shopping.Progress, error) {
	if _, err := s.GetList(id); err != nil {
		return shopping.Progress{}, err
	}
	rows, err := s.db.Query(`SELECT checked FROM list_items WHERE list_id = ?`, id)
	if err != nil {
		return shopping.Progress{}, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var states []shopping.State
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return shopping.Progress{}, fmt.Errorf("scan checked: %w", err)
		}
		st, err := shopping.ParseState(v)
		if err != nil {
			return shopping.Progress{}, err
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return shopping.Progress{}, err
	}
	return shopping.ComputeProgress(states), nil
}

func (s *ListStore) CreateList(name string) (*model.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	res, err := s.db.Exec(`INSERT INTO shopping_lists (name, created_at) VALUES (?, ?)`, name, s.now())
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetList(id)
}

// UpdateList renames an active list. A nil or blank name leaves it as is.
func (s *ListStore) UpdateList(id int64, name *string) (*model.ShoppingList, error) {
	l, err := getActiveList(s.db, id)
	if err != nil {
		return nil, err
	}
	if n := trimmed(name); n != "" {
		if _, err := s.db.Exec(`UPDATE shopping_lists SET name = ? WHERE id = ?`, n, id); err != nil {
			return nil, fmt.Errorf("update list: %w", err)
		}
		l.Name = n
	}
	return l, nil
}

// DeleteList removes a list and, by cascade, its items. History records of
// a completed list are kept.
func (s *ListStore) DeleteList(id int64) error {
	res, err := s.db.Exec(`DELETE FROM shopping_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return checkAffected(res, fmt.Sprintf("list %d", id))
}
