package domain

// Product is the catalog view of an item. Prices always come from here,
// never from client input.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Price       Money  `json:"price"`
	ImageURL    string `json:"imageUrl,omitempty"`
}
