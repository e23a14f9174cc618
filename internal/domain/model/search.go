package model

// SearchResult is one web result used to ground a single turn.
// It lives only between the search call and prompt composition.
type SearchResult struct {
	Name    string
	URL     string
	Snippet string
}
