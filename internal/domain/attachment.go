package domain

import "time"

// AttachmentReference stores metadata for complaint photo evidence held in
// object storage.
type AttachmentReference struct {
	ID          string
	ComplaintID string
	StorageKey  string
	FileName    string
	MimeType    string
	SizeBytes   int64
	CreatedAt   time.Time
}
