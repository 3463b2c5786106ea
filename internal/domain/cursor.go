package domain

// PageCursor is the resumable pagination position for one category crawl.
// Owned by exactly one in-flight execution; offset and totalProcessed are the
// only crawl state persisted across restarts.
type PageCursor struct {
	CategoryID     int64 `json:"categoryId"`
	Offset         int64 `json:"offset"`
	Limit          int64 `json:"limit"`
	TotalProcessed int64 `json:"totalProcessed"`
}
