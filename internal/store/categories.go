package store

var defaultCategoryNames = []string{
	"Cars and vehicles",
	"Real estate",
	"Jobs and employment",
	"Personal services",
	"Business and services",
	"Community and events",
	"For sale",
	"Housing and apartments",
	"Pets and animals",
	"Electronics and appliances",
	"Furniture and decor",
	"Health and beauty",
	"Toys and games",
	"Other",
}

// DefaultCategories returns the categories a fresh deployment is seeded with.
func DefaultCategories() []Category {
	out := make([]Category, 0, len(defaultCategoryNames))
	for _, name := range defaultCategoryNames {
		desc := "Videos related to " + name
		out = append(out, Category{Name: name, Description: &desc})
	}
	return out
}
