package models

// Category is one entry of the backend's category reference list. The form
// only stores category ids; names are presentation data.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}
