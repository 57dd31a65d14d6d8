package ports

import (
	"context"

	"github.com/google/uuid"

	"filedrop-api/internal/domain/link"
)

type LinkService interface {
	CreateLink(ctx context.Context, in link.Upload) (*link.Link, error)
	Download(ctx context.Context, id uuid.UUID) (*link.Download, error)
	DeleteLink(ctx context.Context, id uuid.UUID) error
}
