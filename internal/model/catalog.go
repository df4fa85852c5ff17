package model

import "time"

// DefaultUnit is used when neither the request nor the product names one.
const DefaultUnit = "יחידה"

type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	NameHe    string `json:"name_he"`
	SortOrder int    `json:"sort_order"`
}

type Product struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	NameHe          string    `json:"name_he"`
	CategoryID      *int64    `json:"category_id"`
	CategoryName    *string   `json:"category_name"`
	CategoryNameHe  *string   `json:"category_name_he"`
	DefaultUnit     string    `json:"default_unit"`
	DefaultQuantity float64   `json:"default_quantity"`
	ImagePath       *string   `json:"image_path"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
}

// DisplayName prefers the Hebrew name.
func (p Product) DisplayName() string {
	if p.NameHe != "" {
		return p.NameHe
	}
	return p.Name
}

// ProductFilter narrows a catalog listing. Zero values mean no filter.
type ProductFilter struct {
	CategoryID *int64
	Search     string
}

// ProductInput carries create and update fields. Nil fields are left
// unchanged on update.
type ProductInput struct {
	Name            *string  `json:"name"`
	NameHe          *string  `json:"name_he"`
	CategoryID      *int64   `json:"category_id"`
	DefaultUnit     *string  `json:"default_unit"`
	DefaultQuantity *float64 `json:"default_quantity"`
	Notes           *string  `json:"notes"`
}

// CategoryInput carries create and update fields for a category.
type CategoryInput struct {
	Name      *string `json:"name"`
	NameHe    *string `json:"name_he"`
	SortOrder *int    `json:"sort_order"`
}
