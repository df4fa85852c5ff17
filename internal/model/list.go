package model

import (
	"time"

	"github.com/dukerupert/familycart/internal/shopping"
)

type ListStatus string

const (
	ListActive    ListStatus = "active"
	ListCompleted ListStatus = "completed"
)

type ShoppingList struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Status      ListStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ListSummary is an active list with its item counts, as shown on the
// lists overview.
type ListSummary struct {
	ShoppingList
	ItemCount    int `json:"item_count"`
	CheckedCount int `json:"checked_count"`
}

type ListDetail struct {
	ShoppingList
	Items    []ListItem        `json:"items"`
	Progress shopping.Progress `json:"progress"`
}

// ListItem is a line on a list. Product and category fields are joined in
// at read time and are nil for free-text items.
type ListItem struct {
	ID         int64          `json:"id"`
	ListID     int64          `json:"list_id"`
	ProductID  *int64         `json:"product_id"`
	CustomName *string        `json:"custom_name"`
	Quantity   float64        `json:"quantity"`
	Unit       string         `json:"unit"`
	Checked    shopping.State `json:"checked"`
	SortOrder  int            `json:"sort_order"`
	Notes      string         `json:"notes"`
	AddedAt    time.Time      `json:"added_at"`

	ProductName    *string `json:"product_name"`
	ProductNameHe  *string `json:"product_name_he"`
	ImagePath      *string `json:"image_path"`
	CategoryID     *int64  `json:"category_id"`
	CategoryName   *string `json:"category_name"`
	CategoryNameHe *string `json:"category_name_he"`
	CategorySort   *int    `json:"category_sort"`
}

// DisplayName resolves product_name_he, then product_name, then custom_name.
func (i ListItem) DisplayName() string {
	for _, s := range []*string{i.ProductNameHe, i.ProductName, i.CustomName} {
		if s != nil && *s != "" {
			return *s
		}
	}
	return ""
}

// NewItem is a request to add an item to a list. ProductID and CustomName
// are exclusive.
type NewItem struct {
	ProductID  *int64   `json:"product_id"`
	CustomName *string  `json:"custom_name"`
	Quantity   *float64 `json:"quantity"`
	Unit       *string  `json:"unit"`
	Notes      *string  `json:"notes"`
}

// ItemPatch is a partial item update. Nil fields are left unchanged.
type ItemPatch struct {
	Quantity  *float64        `json:"quantity"`
	Unit      *string         `json:"unit"`
	Checked   *shopping.State `json:"checked"`
	SortOrder *int            `json:"sort_order"`
	Notes     *string         `json:"notes"`
}

func (p ItemPatch) Empty() bool {
	return p.Quantity == nil && p.Unit == nil && p.Checked == nil && p.SortOrder == nil && p.Notes == nil
}
