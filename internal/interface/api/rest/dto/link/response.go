package link

import (
	"github.com/google/uuid"
)

type (
	Link struct {
		ID                 uuid.UUID `json:"id"`
		URL                string    `json:"url"`
		FileName           string    `json:"file_name"`
		SizeBytes          uint64    `json:"size_bytes"`
		RemainingDownloads uint32    `json:"remaining_downloads"`
		ExpiresInSeconds   uint64    `json:"expires_in_seconds"`
	}
)
