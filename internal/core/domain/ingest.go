package domain

// PaperQuery selects which papers to fetch from the upstream archive.
// At least one of Category or Terms must be set.
type PaperQuery struct {
	// Category is a subject classification, e.g. "cs.CL".
	Category string

	// Terms is a free-text query over all fields.
	Terms string

	// MaxResults caps how many papers are fetched, newest first.
	MaxResults int
}
