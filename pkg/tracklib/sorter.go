package tracklib

import "sort"

// ProductSlice attaches the methods of sort.Interface to []*Product,
// sorting by DateAdded in chronological order.
type ProductSlice []*Product

// Len returns the number of elements in the slice.
func (x ProductSlice) Len() int { return len(x) }

// Less reports whether the product at index i was tracked before the
// product at index j.
func (x ProductSlice) Less(i, j int) bool {
	return x[i].DateAdded.Before(x[j].DateAdded)
}

// Swap exchanges the elements at indices i and j.
func (x ProductSlice) Swap(i, j int) { x[i], x[j] = x[j], x[i] }

// SortProducts sorts products chronologically by DateAdded.
func SortProducts(x []*Product) { sort.Sort(ProductSlice(x)) }
