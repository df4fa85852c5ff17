package model

import (
	"time"

	"github.com/dukerupert/familycart/internal/shopping"
)

type PurchaseHistory struct {
	ID          int64     `json:"id"`
	ListID      *int64    `json:"list_id"`
	ListName    string    `json:"list_name"`
	ItemCount   int       `json:"item_count"`
	CompletedAt time.Time `json:"completed_at"`
}

type PurchaseHistoryItem struct {
	ID          int64          `json:"id"`
	HistoryID   int64          `json:"history_id"`
	ProductName string         `json:"product_name"`
	Quantity    float64        `json:"quantity"`
	Unit        string         `json:"unit"`
	Checked     shopping.State `json:"checked"`
}

type HistoryDetail struct {
	PurchaseHistory
	Items []PurchaseHistoryItem `json:"items"`
}

// HistoryItemEntry is a history item with the record it belongs to.
type HistoryItemEntry struct {
	PurchaseHistoryItem
	ListName    string    `json:"list_name"`
	CompletedAt time.Time `json:"completed_at"`
}

// ItemHistory groups every purchase of one product name.
type ItemHistory struct {
	ProductName string             `json:"product_name"`
	Count       int                `json:"count"`
	Entries     []HistoryItemEntry `json:"entries"`
}
