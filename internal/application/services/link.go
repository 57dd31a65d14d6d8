package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"filedrop-api/internal/application/ports"
	domain "filedrop-api/internal/domain/link"
	"filedrop-api/internal/infrastructure/mq"
	linkdto "filedrop-api/internal/interface/api/rest/dto/link"
)

const maxBaseNameLen = 100

var windowsReserved = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {}, "com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {}, "lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// LinkDefaults are the configured fallbacks applied when an upload does
// not override the download budget or the TTL.
type LinkDefaults struct {
	MaxDownloads uint32
	TTL          time.Duration
}

// LinkService bridges HTTP uploads and downloads to the link registry and
// the blob store, and owns deletion triggering.
type LinkService struct {
	registry domain.Registry
	blob     ports.BlobStore
	mq       ports.RabbitMQ
	logger   *zap.Logger
	mCounter *prometheus.CounterVec
	defaults LinkDefaults
}

func NewLinkService(
	registry domain.Registry,
	blob ports.BlobStore,
	mq ports.RabbitMQ,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
	defaults LinkDefaults,
) ports.LinkService {
	return &LinkService{
		registry: registry,
		blob:     blob,
		mq:       mq,
		logger:   logger,
		mCounter: mCounter,
		defaults: defaults,
	}
}

func (ls *LinkService) CreateLink(ctx context.Context, in domain.Upload) (*domain.Link, error) {
	maxDownloads := in.MaxDownloads
	if maxDownloads == 0 {
		maxDownloads = ls.defaults.MaxDownloads
	}
	ttl := in.TTL
	if ttl == 0 {
		ttl = ls.defaults.TTL
	}

	blobID := uuid.New().String()
	size, err := ls.blob.Put(ctx, blobID, in.Body)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out, err := ls.registry.Create(ctx, &domain.Link{
		BlobID:             blobID,
		FileName:           sanitizeFileName(in.FileName),
		MimeType:           in.MimeType,
		SizeBytes:          uint64(size),
		MaxDownloads:       maxDownloads,
		RemainingDownloads: maxDownloads,
		CreatedAt:          now,
		ExpiresAt:          now.Add(ttl),
	})
	if err != nil {
		if derr := ls.blob.Delete(ctx, blobID); derr != nil {
			ls.logger.Warn("orphan blob delete failed", zap.String("blob_id", blobID), zap.Error(derr))
		}
		return nil, err
	}

	ls.mq.GetInputChan() <- mq.Event{
		Id:      uuid.New(),
		TS:      time.Now(),
		Action:  mq.ActionCreated,
		LinkID:  out.ID.String(),
		Payload: linkdto.ToResponseLink(*out),
	}

	ls.mCounter.WithLabelValues("links_created_total").Inc()

	return out, nil
}

// Download performs the atomic consume transaction and, on a grant, hands
// back an open blob handle. The handle is opened before any deletion so the
// final in-flight download stays readable after the blob name is unlinked.
// A failed read after the grant still consumes the link; downloads are
// counted on grant, not on completion.
func (ls *LinkService) Download(ctx context.Context, id uuid.UUID) (*domain.Download, error) {
	res := ls.registry.TryConsume(ctx, id, time.Now())

	switch res.Outcome {
	case domain.OutcomeNotFound:
		return nil, domain.ErrNotFound
	case domain.OutcomeExpired, domain.OutcomeExhausted:
		ls.purge(ctx, id, mq.ActionExpired)
		return nil, domain.ErrGone
	}

	body, err := ls.blob.Open(ctx, res.Link.BlobID)
	if err != nil {
		if res.Last {
			ls.purge(ctx, id, "")
		}
		return nil, fmt.Errorf("open blob for link %s: %w", id, err)
	}

	if res.Last {
		ls.purge(ctx, id, "")
	}

	ls.mq.GetInputChan() <- mq.Event{
		Id:      uuid.New(),
		TS:      time.Now(),
		Action:  mq.ActionConsumed,
		LinkID:  id.String(),
		Payload: linkdto.ToResponseLink(*res.Link),
	}

	ls.mCounter.WithLabelValues("downloads_granted_total").Inc()

	return &domain.Download{
		Body:      body,
		FileName:  res.Link.FileName,
		MimeType:  res.Link.MimeType,
		SizeBytes: res.Link.SizeBytes,
		Remaining: res.Remaining,
	}, nil
}

// DeleteLink revokes a link early, before its budget or TTL runs out.
func (ls *LinkService) DeleteLink(ctx context.Context, id uuid.UUID) error {
	entry, ok := ls.registry.Remove(ctx, id)
	if !ok {
		return domain.ErrNotFound
	}

	if err := ls.blob.Delete(ctx, entry.BlobID); err != nil {
		ls.logger.Warn("blob delete failed", zap.String("link_id", id.String()), zap.Error(err))
	}

	ls.mq.GetInputChan() <- mq.Event{
		Id:      uuid.New(),
		TS:      time.Now(),
		Action:  mq.ActionDeleted,
		LinkID:  id.String(),
		Payload: linkdto.ToResponseLink(*entry),
	}

	ls.mCounter.WithLabelValues("links_deleted_total").Inc()

	return nil
}

// purge removes a terminal entry and frees its blob. Remove is idempotent,
// so when the sweeper and a request race here only one of them gets the
// entry back and deletes the blob. Blob failures are logged, never surfaced.
func (ls *LinkService) purge(ctx context.Context, id uuid.UUID, action string) {
	entry, ok := ls.registry.Remove(ctx, id)
	if !ok {
		return
	}

	if err := ls.blob.Delete(ctx, entry.BlobID); err != nil {
		ls.logger.Warn("blob delete failed", zap.String("link_id", id.String()), zap.Error(err))
	}

	if action != "" {
		ls.mq.GetInputChan() <- mq.Event{
			Id:      uuid.New(),
			TS:      time.Now(),
			Action:  action,
			LinkID:  id.String(),
			Payload: linkdto.ToResponseLink(*entry),
		}
	}
}

// sanitizeFileName makes the client-supplied name safe to echo back in a
// Content-Disposition header: ASCII, no path separators, bounded length.
func sanitizeFileName(original string) string {
	if original == "" {
		return "file"
	}

	s := strings.TrimSpace(original)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)

	if s == "." || s == ".." || s == "" {
		return "file"
	}

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	s, _, _ = transform.String(t, s)

	ext := strings.ToLower(path.Ext(s))
	base := strings.TrimSuffix(s, ext)

	var b strings.Builder
	b.Grow(len(base))
	prevDash := false
	for _, r := range base {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevDash = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			prevDash = false
		case r == '-' || r == '_':
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		case r == '.' || unicode.IsSpace(r):
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		default:
		}
	}
	base = strings.Trim(b.String(), "-")

	if base == "" {
		base = "file"
	}
	if _, bad := windowsReserved[base]; bad {
		base = "_" + base
	}

	for utf8.RuneCountInString(base)+len(ext) > maxBaseNameLen {
		_, size := utf8.DecodeLastRuneInString(base)
		if size <= 0 || size > len(base) {
			break
		}
		base = base[:len(base)-size]
	}

	return base + ext
}

func isMn(r rune) bool { return unicode.Is(unicode.Mn, r) }
