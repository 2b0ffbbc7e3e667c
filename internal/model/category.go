package model

// Category is static reference data for classifying transactions.
// The consistency engine only ever reads it.
type Category struct {
	Name string
	ID   int64
}
