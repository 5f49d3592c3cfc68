package model

// Category is read-mostly taxonomy data populated by the seed step.
type Category struct {
	ID            int64
	Name          string
	Subcategories []string
}

// FirstSubcategory returns the leading subcategory or "" when there is none.
func (c *Category) FirstSubcategory() string {
	if c == nil || len(c.Subcategories) == 0 {
		return ""
	}
	return c.Subcategories[0]
}
