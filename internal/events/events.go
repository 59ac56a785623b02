package events

var (
	PostingIngestedTopic    = "PostingIngestedEvent"
	IngestRunCompletedTopic = "IngestRunCompletedEvent"
	MatchFoundTopic         = "MatchFoundEvent"
)

type PostingIngested struct {
	JobID   uint
	URL     string
	Title   string
	Company string
	Source  string
}

type IngestRunCompleted struct {
	RunID        uint
	Processed    int
	TotalScraped int
	Failed       bool
}

type MatchFound struct {
	UserID int64
	JobID  uint
	Score  float64
	Title  string
	URL    string
}
