package readleapi

// SessionResponse is returned by POST /chat/session/new.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatRequest is the body of POST /chat. An empty SessionID asks the service
// to start a new session.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the reply to POST /chat.
type ChatResponse struct {
	Response       string   `json:"response"`
	SessionID      string   `json:"session_id"`
	SourcesUsed    bool     `json:"sources_used,omitempty"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty"`
	ResponseType   string   `json:"response_type,omitempty"`
}

// HistoryMessage is one stored turn of a session. Timestamp is kept as sent
// since the service emits ISO times without a zone.
type HistoryMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// HistoryResponse is returned by GET /chat/session/{id}/history.
type HistoryResponse struct {
	SessionID    string           `json:"session_id"`
	Messages     []HistoryMessage `json:"messages"`
	MessageCount int              `json:"message_count"`
}

// HealthResponse is returned by GET /health. The service reports the
// rag_disabled and include_pdfs flags as strings.
type HealthResponse struct {
	Status             string  `json:"status"`
	Service            string  `json:"service"`
	ActiveSessions     int     `json:"active_sessions"`
	RAGInitialized     bool    `json:"rag_initialized"`
	RelevanceThreshold float64 `json:"relevance_threshold"`
	RAGDisabled        string  `json:"rag_disabled"`
	IncludePDFs        string  `json:"include_pdfs"`
	ChromaDir          string  `json:"chroma_dir"`
}

// RAGStatus is returned by GET /rag/status.
type RAGStatus struct {
	Initialized          bool     `json:"initialized"`
	VectorstoreAvailable bool     `json:"vectorstore_available"`
	RelevanceThreshold   float64  `json:"relevance_threshold"`
	DefaultWebsites      []string `json:"default_websites"`
	PDFFolder            string   `json:"pdf_folder"`
	PDFFilesFound        []string `json:"pdf_files_found"`
	TotalPDFFiles        int      `json:"total_pdf_files"`
}
