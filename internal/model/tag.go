package model

const (
	// AllTagName is the synthetic tag that groups every bookmark.
	AllTagName = "All"
	// AllTagID is the sentinel identifier of the synthetic tag.
	AllTagID int64 = -1
)

// Tag is a user-defined label as listed by the remote service.
type Tag struct {
	ID   int64  `json:"tagId"`
	Name string `json:"tagName"`
}
