package models

// UploadForm mirrors the fields of the upload form. Campus is renamed to
// location on submission.
type UploadForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Campus      string `json:"campus"`
	OpenTo      string `json:"open_to,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	TicketPrice string `json:"ticket_price,omitempty"`
	IsFree      bool   `json:"is_free"`
	ImageURL    string `json:"image_url,omitempty"`
}
