package model

// Notification is a reminder the service raises for a bookmark.
type Notification struct {
	ID       int64    `json:"id"`
	NotiType string   `json:"notiType"` // "BROWSER"
	Message  string   `json:"message"`
	Image    *string  `json:"image,omitempty"`
	NotiDate string   `json:"notidate"`
	Check    bool     `json:"check"` // true once read
	Bookmark Bookmark `json:"bookmark"`
}
