package catalog

import "github.com/shopspring/decimal"

type Category string

const (
	CategoryPizza    Category = "pizza"
	CategoryBread    Category = "bread"
	CategoryCake     Category = "cake"
	CategoryBeverage Category = "beverage"
)

// Product is an immutable catalog entry. Entries come from the seed menu
// or from a POS pull; the ordering flow never mutates them.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Category        Category        `json:"category"`
	Available       bool            `json:"available"`
	PreparationMins int             `json:"preparationMins"`
	Ingredients     []string        `json:"ingredients,omitempty"`
	Allergens       []string        `json:"allergens,omitempty"`
}

func ValidCategory(c Category) bool {
	switch c {
	case CategoryPizza, CategoryBread, CategoryCake, CategoryBeverage:
		return true
	}
	return false
}
