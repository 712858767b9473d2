package models

// SearchQuery is a search request. An empty Query is valid and matches every
// document whose content decrypts.
type SearchQuery struct {
	Query string `json:"query"`
	User  string `json:"user,omitempty"`
}

// Normalize fills User with fallback when unset and validates it.
func (q *SearchQuery) Normalize(fallback string) error {
	if q.User == "" {
		q.User = fallback
	}
	return ValidateUser(q.User)
}
