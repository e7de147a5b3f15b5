package transaction

import "github.com/MrJamesThe3rd/bonsai/internal/receipt"

// Category is the canonical, persisted classification of a transaction.
type Category string

const (
	CategoryDining         Category = "dining"
	CategoryGrocery        Category = "grocery"
	CategoryGas            Category = "gas"
	CategoryRideshare      Category = "rideshare"
	CategoryShopping       Category = "shopping"
	CategoryEntertainment  Category = "entertainment"
	CategoryTravel         Category = "travel"
	CategoryHealthcare     Category = "healthcare"
	CategoryUtilities      Category = "utilities"
	CategoryHousing        Category = "housing"
	CategoryEducation      Category = "education"
	CategoryInsurance      Category = "insurance"
	CategoryTransportation Category = "transportation"
	CategoryClothing       Category = "clothing"
	CategorySubscription   Category = "subscription"
	CategoryOther          Category = "other"
)

// Categories lists every canonical category.
var Categories = []Category{
	CategoryDining, CategoryGrocery, CategoryGas, CategoryRideshare, CategoryShopping,
	CategoryEntertainment, CategoryTravel, CategoryHealthcare, CategoryUtilities, CategoryHousing,
	CategoryEducation, CategoryInsurance, CategoryTransportation, CategoryClothing,
	CategorySubscription, CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}

	return false
}

// RollupCategory is the coarse set used for dashboards. It is derived on
// read and never stored.
type RollupCategory string

const (
	RollupDining         RollupCategory = "dining"
	RollupGrocery        RollupCategory = "grocery"
	RollupTransportation RollupCategory = "transportation"
	RollupRetail         RollupCategory = "retail"
	RollupOther          RollupCategory = "other"
)

// RollupCategories lists the rollup set in display order.
var RollupCategories = []RollupCategory{
	RollupDining, RollupTransportation, RollupGrocery, RollupRetail, RollupOther,
}

func (c Category) Rollup() RollupCategory {
	switch c {
	case CategoryDining:
		return RollupDining
	case CategoryGrocery:
		return RollupGrocery
	case CategoryGas, CategoryRideshare, CategoryTransportation, CategoryTravel:
		return RollupTransportation
	case CategoryShopping, CategoryClothing:
		return RollupRetail
	}

	return RollupOther
}

// CategoryFromReceipt maps a receipt classification onto the canonical set.
func CategoryFromReceipt(c receipt.Category) Category {
	switch c {
	case receipt.CategoryDining:
		return CategoryDining
	case receipt.CategoryGrocery:
		return CategoryGrocery
	case receipt.CategoryRetail:
		return CategoryShopping
	}

	return CategoryOther
}
