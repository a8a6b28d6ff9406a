package domain

// Movie is a catalog entry. Name is the business key; Stock is the number
// of tickets still available and never drops below zero.
type Movie struct {
	ID    int    `json:"id"`
	Name  string `json:"nombre"`
	Stock int    `json:"stock"`
}
