package catalog

import "github.com/shopspring/decimal"

// SeedMenu returns the built-in menu used until a POS pull replaces it.
func SeedMenu() []Product {
	return []Product{
		{
			ID:              "pizza-1",
			Name:            "Margherita",
			Description:     "Tomato sauce, mozzarella, fresh basil",
			Price:           decimal.NewFromInt(32),
			Category:        CategoryPizza,
			Available:       true,
			PreparationMins: 15,
			Ingredients:     []string{"tomato sauce", "mozzarella", "basil"},
			Allergens:       []string{"gluten", "milk"},
		},
		{
			ID:              "pizza-2",
			Name:            "Capricciosa",
			Description:     "Tomato sauce, mozzarella, mushrooms, ham",
			Price:           decimal.NewFromInt(38),
			Category:        CategoryPizza,
			Available:       true,
			PreparationMins: 18,
			Ingredients:     []string{"tomato sauce", "mozzarella", "mushrooms", "ham"},
			Allergens:       []string{"gluten", "milk"},
		},
		{
			ID:              "pizza-3",
			Name:            "Diavola",
			Description:     "Tomato sauce, mozzarella, spicy salami",
			Price:           decimal.NewFromInt(39),
			Category:        CategoryPizza,
			Available:       true,
			PreparationMins: 16,
			Ingredients:     []string{"tomato sauce", "mozzarella", "spicy salami"},
			Allergens:       []string{"gluten", "milk"},
		},
		{
			ID:              "bread-1",
			Name:            "Rye sourdough loaf",
			Description:     "Traditional rye bread on natural sourdough",
			Price:           decimal.NewFromInt(12),
			Category:        CategoryBread,
			Available:       true,
			PreparationMins: 5,
			Ingredients:     []string{"rye flour", "sourdough", "salt", "water"},
			Allergens:       []string{"gluten"},
		},
		{
			ID:              "bread-2",
			Name:            "French baguette",
			Description:     "Crisp French-style baguette",
			Price:           decimal.NewFromInt(8),
			Category:        CategoryBread,
			Available:       true,
			PreparationMins: 5,
			Ingredients:     []string{"wheat flour", "yeast", "salt", "water"},
			Allergens:       []string{"gluten"},
		},
		{
			ID:              "cake-1",
			Name:            "Tiramisu",
			Description:     "Classic tiramisu with mascarpone and espresso",
			Price:           decimal.NewFromInt(18),
			Category:        CategoryCake,
			Available:       true,
			PreparationMins: 5,
			Ingredients:     []string{"mascarpone", "espresso", "ladyfingers", "cocoa"},
			Allergens:       []string{"gluten", "milk", "eggs"},
		},
		{
			ID:              "drink-1",
			Name:            "Lemonade",
			Description:     "House lemonade with mint",
			Price:           decimal.NewFromInt(9),
			Category:        CategoryBeverage,
			Available:       true,
			PreparationMins: 3,
		},
		{
			ID:              "drink-2",
			Name:            "Sparkling water",
			Description:     "Sparkling mineral water 0.5l",
			Price:           decimal.NewFromInt(6),
			Category:        CategoryBeverage,
			Available:       true,
			PreparationMins: 1,
		},
	}
}
