package models

// Queue categories: the two sides of a pairing. An entry is only ever
// matched against the opposite category.
const (
	CategoryVenter   = "venter"
	CategoryListener = "listener"
)

// Match statuses
const (
	MatchStatusMatched        = "matched"
	MatchStatusSessionCreated = "session_created"
)

// ValidCategory reports whether c names one of the two queue sides.
func ValidCategory(c string) bool {
	return c == CategoryVenter || c == CategoryListener
}

// OppositeCategory returns the side an entry of category c is matched
// against. Callers must pass a valid category.
func OppositeCategory(c string) string {
	if c == CategoryVenter {
		return CategoryListener
	}
	return CategoryVenter
}
