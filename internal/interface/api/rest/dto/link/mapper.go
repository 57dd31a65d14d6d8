package link

import (
	"time"

	domain "filedrop-api/internal/domain/link"
)

// short public download path, kept stable for shared URLs
const downloadPathPrefix = "/d/"

func ToResponseLink(l domain.Link) Link {
	return Link{
		ID:                 l.ID,
		URL:                downloadPathPrefix + l.ID.String(),
		FileName:           l.FileName,
		SizeBytes:          l.SizeBytes,
		RemainingDownloads: l.RemainingDownloads,
		ExpiresInSeconds:   l.ExpiresIn(time.Now()),
	}
}
