package server

// RegisterRequest asks for a capability token for an identity.
type RegisterRequest struct {
	Identity string `json:"identity"`
}

// RegisterResponse carries the issued token.
type RegisterResponse struct {
	Identity string `json:"identity"`
	Token    string `json:"token"`
}

// ChatRequest is one question against a session.
type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	Identity  string `json:"identity"`
	Token     string `json:"token"`
}

// ContextResponse is the rendered recent-context window.
type ContextResponse struct {
	SessionID string `json:"session_id"`
	Context   string `json:"context"`
}

// HTTPError is the unified error body.
type HTTPError struct {
	Error string `json:"error"`
}
