package domain

// Page is one response of a cursor-paginated endpoint. An empty NextCursor
// means the sequence is exhausted.
type Page[T any] struct {
	Items      []T
	NextCursor string
}
