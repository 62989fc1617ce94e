package domain

// ImportRequest describes one import job. Immutable once built by the
// pre-flight validator; the orchestrator consumes it as-is.
type ImportRequest struct {
	URL       string `json:"url" binding:"required,originurl"`
	BoardID   int64  `json:"board_id"`
	SectionID *int64 `json:"section_id,omitempty"`
	Status    string `json:"status"`
	Threaded  bool   `json:"threaded"`
	// Subject overrides the scraped thread subject when set.
	Subject string `json:"subject,omitempty"`
	// CreateMissing lets identity resolution create characters (and
	// their galleries) for origin usernames with no internal match.
	// When false, unresolved usernames fail the import up front.
	CreateMissing bool `json:"create_missing"`
	// UserID is the requesting user, taken from the verified token,
	// never from the request body.
	UserID int64 `json:"-"`
}

// ImportPreview is the synchronous pre-flight result shown to the user
// before the job is queued.
type ImportPreview struct {
	Subject   string   `json:"subject"`
	PageCount int      `json:"page_count"`
	Usernames []string `json:"usernames"`
}

// ImportJob is the queue payload for one deferred import
type ImportJob struct {
	ID      string        `json:"id"`
	Request ImportRequest `json:"request"`
}
