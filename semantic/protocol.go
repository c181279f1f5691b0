package semantic

// RequestType is the operation a Request asks the worker for.
type RequestType string

const (
	RequestInit   RequestType = "INIT"
	RequestSearch RequestType = "SEARCH"
	RequestIndex  RequestType = "INDEX"
	RequestPing   RequestType = "PING"
)

// MessageType discriminates worker replies. SUCCESS, ERROR and PONG are
// terminal: each request gets exactly one of them. PROGRESS may precede it.
type MessageType string

const (
	MessageSuccess  MessageType = "SUCCESS"
	MessageError    MessageType = "ERROR"
	MessageProgress MessageType = "PROGRESS"
	MessagePong     MessageType = "PONG"
)

// Terminal reports whether the message resolves its request.
func (t MessageType) Terminal() bool {
	return t == MessageSuccess || t == MessageError || t == MessagePong
}

// ProgressStatus distinguishes model download from document indexing.
type ProgressStatus string

const (
	StatusDownloading ProgressStatus = "downloading"
	StatusIndexing    ProgressStatus = "indexing"
	StatusReady       ProgressStatus = "ready"
)

// Request is sent from the bridge to the worker.
type Request struct {
	ID        string      `json:"id"`
	Type      RequestType `json:"type"`
	Query     string      `json:"query,omitempty"`
	Documents []string    `json:"documents,omitempty"`
}

// Message is sent from the worker to the bridge.
type Message struct {
	ID       string      `json:"id"`
	Type     MessageType `json:"type"`
	Ready    bool        `json:"ready,omitempty"`
	Results  []Result    `json:"results,omitempty"`
	Error    string      `json:"error,omitempty"`
	Progress *Progress   `json:"progress,omitempty"`
}

// Progress reports model loading or indexing.
type Progress struct {
	Status  ProgressStatus `json:"status"`
	Loaded  int64          `json:"loaded,omitempty"`
	Total   int64          `json:"total,omitempty"`
	Percent float64        `json:"percent"`
	File    string         `json:"file,omitempty"`
}

// Result is the similarity of one document to the query. Index is the
// document's position in the request.
type Result struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}
