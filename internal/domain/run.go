package domain

// AnnotationRun is a single ledger entry describing one annotation of a file.
type AnnotationRun struct {
	PK          string
	SK          string
	RunID       string
	FilePath    string
	Provider    string
	Model       string
	Language    string
	TotalTokens int
	Fenced      bool
	Status      string
	Reason      string
	CreatedAt   string
	TTL         int64
}
