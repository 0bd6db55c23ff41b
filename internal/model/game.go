package model

// Game is one inventory row from the VideoGame table, joined with its
// platform name for display.
//
// The `json:"..."` tags control serialization; Price marshals as a JSON
// number (not a string), rounded to two decimals by the service layer before
// it is stored.
//
// Platform is stored as a PlatformID foreign key but exposed by name — the
// numeric id is an internal detail of the reference table and never leaves
// the repository layer.
type Game struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Rating   int     `json:"rating"`
	Genre    string  `json:"genre"`
	Quantity int     `json:"quantity"`
	Platform string  `json:"platform"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// Platform is a row of the read-only VideoGame_Platform reference table.
// Seeded at migration time; the application never mutates it.
type Platform struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Genres is the enumerated set of game genres the form offers.
// Extending the set is a data change, not a schema change — the column is
// plain TEXT and the list exists for the frontend dropdown.
var Genres = []string{"Adventure", "FPS", "Fighting"}
