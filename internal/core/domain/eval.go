package domain

// EvalQuery is one labelled retrieval-quality query: the text to
// search for and the documents a good result set should surface.
type EvalQuery struct {
	Query               string   `json:"query"`
	RelevantDocumentIDs []string `json:"relevant_document_ids"`
}

// EvalMetrics holds the averaged quality numbers for one cutoff.
type EvalMetrics struct {
	K         int     `json:"k"`
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
}

// EvalReport aggregates retrieval quality over a labelled query set.
type EvalReport struct {
	Queries int           `json:"queries"`
	Metrics []EvalMetrics `json:"metrics"`
}
