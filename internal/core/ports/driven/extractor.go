package driven

// TextExtractor pulls plain text out of a local artifact such as a
// PDF full text.
type TextExtractor interface {
	// Extract returns the text of the file at path and the number of
	// pages that contributed text. Pages without a readable text
	// layer are skipped.
	Extract(path string) (text string, pages int, err error)
}
