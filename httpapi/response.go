package httpapi

import "html/template"

//ChatPage is the data rendered by the page template
type ChatPage struct {
	Messages []template.HTML
	Anchor   string //id of the element the transcript is scrolled to
	Pending  bool
}

//HealthResponse is the body of the health check
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Error  string `json:"error,omitempty"`
}
