package domain

// Sale records one completed purchase. It is immutable once created.
type Sale struct {
	ID           int    `json:"id"`
	CustomerName string `json:"nombre_cliente"`
	Quantity     int    `json:"cantidad"`
	MovieName    string `json:"pelicula"`
}
