package models

type OptIns struct {
	Events []string `json:"events"`
}

// ActionResult is the body returned by reserve, create and delete calls.
type ActionResult struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Event   *Event `json:"event,omitempty"`
}

type ReserveRequest struct {
	Email string `json:"email"`
}
