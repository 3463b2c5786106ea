package domain

// Category is one node of the marketplace category hierarchy. The upstream
// returns roots with nested children; additional nodes are reconstructed from
// the flat categoryTree payload of a search response.
type Category struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Adult    bool       `json:"adult"`
	Eco      bool       `json:"eco"`
	Children []Category `json:"children,omitempty"`
}

// RootCategoriesResponse wraps the /main/root-categories payload.
type RootCategoriesResponse struct {
	Payload []Category      `json:"payload"`
	Errors  []ResponseError `json:"errors,omitempty"`
}

type ResponseError struct {
	Code          string `json:"code,omitempty"`
	Message       string `json:"message,omitempty"`
	DetailMessage string `json:"detailMessage,omitempty"`
}
