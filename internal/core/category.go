package core

import "errors"

var ErrUnknownCategory = errors.New("unknown category")

// Category is one of a fixed, non-persisted set of expense categories.
type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Categories is the fixed set, in display order.
var Categories = []Category{
	{ID: 1, Name: "Groceries", Color: "#FF9800"},
	{ID: 2, Name: "Transport", Color: "#2196F3"},
	{ID: 3, Name: "Entertainment", Color: "#E91E63"},
	{ID: 4, Name: "Bills", Color: "#4CAF50"},
	{ID: 5, Name: "Other", Color: "#9C27B0"},
}

// CategoryByID looks up a category in the fixed set.
func CategoryByID(id int) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
