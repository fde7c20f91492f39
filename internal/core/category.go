package core

import "strings"

// Category names a spending bucket. The built-in values below are always
// present; users may extend the set at runtime.
type Category string

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Shopping      Category = "Shopping"
	Bills         Category = "Bills"
	Entertainment Category = "Entertainment"
	Investment    Category = "Investment"
	IncomeCat     Category = "Income"
	TransferCat   Category = "Transfer"
	Other         Category = "Other"
)

// BuiltinCategories lists the well-known categories in display order.
var BuiltinCategories = []Category{
	Food, Transport, Shopping, Bills, Entertainment, Investment, IncomeCat, TransferCat, Other,
}

// IsBuiltin reports whether c is one of the well-known categories,
// ignoring case.
func (c Category) IsBuiltin() bool {
	for _, b := range BuiltinCategories {
		if strings.EqualFold(string(b), string(c)) {
			return true
		}
	}
	return false
}

// Is reports whether c and o name the same category, ignoring case.
func (c Category) Is(o Category) bool {
	return strings.EqualFold(string(c), string(o))
}

// Canonical returns the built-in spelling of c when c is a built-in, and c
// otherwise.
func (c Category) Canonical() Category {
	for _, b := range BuiltinCategories {
		if b.Is(c) {
			return b
		}
	}
	return c
}

// CategorySet is an ordered list of categories, unique case-insensitively.
type CategorySet []Category

// DefaultCategories returns a fresh set holding the built-ins.
func DefaultCategories() CategorySet {
	return append(CategorySet(nil), BuiltinCategories...)
}

// Find returns the stored spelling of name, if present.
func (s CategorySet) Find(name string) (Category, bool) {
	name = NormalizeName(name)
	for _, c := range s {
		if strings.EqualFold(string(c), name) {
			return c, true
		}
	}
	return "", false
}

// Add normalizes name and appends it unless already present.
// It returns the resulting set, the stored category and whether it was added.
func (s CategorySet) Add(name string) (CategorySet, Category, bool, error) {
	name = NormalizeName(name)
	if name == "" {
		return s, "", false, Invalid("category", ErrEmptyCategory)
	}
	if existing, ok := s.Find(name); ok {
		return s, existing, false, nil
	}
	c := Category(name)
	return append(s, c), c, true, nil
}

// Dedupe drops empty and case-insensitive duplicate entries, keeping the
// first spelling seen.
func (s CategorySet) Dedupe() CategorySet {
	out := make(CategorySet, 0, len(s))
	for _, c := range s {
		var err error
		out, _, _, err = out.Add(string(c))
		if err != nil {
			continue
		}
	}
	return out
}

// Strings returns the category names.
func (s CategorySet) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = string(c)
	}
	return out
}
