package chat

// Snapshot is a read-only copy of the session state handed to presentation layers.
type Snapshot struct {
	Messages []Message `json:"messages"`
	Draft    string    `json:"draft"`
	Busy     bool      `json:"busy"`
}
