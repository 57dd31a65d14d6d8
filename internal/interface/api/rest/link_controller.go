package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filedrop-api/internal/application/ports"
	domain "filedrop-api/internal/domain/link"
	linkdto "filedrop-api/internal/interface/api/rest/dto/link"
	"filedrop-api/internal/interface/api/rest/middleware"
	"filedrop-api/internal/interface/api/rest/validator"
)

// 10MB
const maxSize = int64(10 << 20)

const defaultMimeType = "application/octet-stream"

type LinkController struct {
	linkService ports.LinkService
	logger      *zap.Logger
}

func NewLinkController(
	r *gin.Engine,
	linkService ports.LinkService,
	logger *zap.Logger,
	uploadSecret string,
) *LinkController {
	lc := &LinkController{
		linkService: linkService,
		logger:      logger,
	}

	r.POST(RouteLinks, middleware.UploadAuthMiddleware(uploadSecret), lc.CreateLinkHandler)
	r.GET(RouteLink, lc.DownloadHandler)
	r.GET(RouteDownload, lc.DownloadHandler)
	r.DELETE(RouteLink, middleware.UploadAuthMiddleware(uploadSecret), lc.DeleteLinkHandler)

	return lc
}

func (lc *LinkController) CreateLinkHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size <= 0 || fh.Size > maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large or empty"})
		return
	}

	maxDownloads, err := validator.ValidateMaxDownloads(c.PostForm("max_downloads"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ttl, err := validator.ValidateTTL(c.PostForm("ttl_seconds"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to store the file"},
		)
		lc.logger.Error("FormFile Open() error", zap.Error(err))
		return
	}
	defer f.Close()

	l, err := lc.linkService.CreateLink(c.Request.Context(), domain.Upload{
		FileName:     fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		SizeBytes:    uint64(fh.Size),
		Body:         f,
		MaxDownloads: maxDownloads,
		TTL:          ttl,
	})
	if err != nil {
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to store the file"},
		)
		lc.logger.Error("CreateLink() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, linkdto.ToResponseLink(*l))
}

func (lc *LinkController) DownloadHandler(c *gin.Context) {
	// a link id that cannot parse can never have been issued
	ok, id := validator.IsUUID(c.Param("link_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
		return
	}

	d, err := lc.linkService.Download(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
		case errors.Is(err, domain.ErrGone):
			c.JSON(http.StatusGone, gin.H{"error": "link expired or exhausted"})
		default:
			c.JSON(
				http.StatusInternalServerError,
				gin.H{"error": "failed to read the file"},
			)
			lc.logger.Error("Download() error", zap.Error(err))
		}
		return
	}
	defer d.Body.Close()

	mimeType := d.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	extraHeaders := map[string]string{
		"Content-Disposition":   fmt.Sprintf("attachment; filename=%q", d.FileName),
		"X-Remaining-Downloads": strconv.FormatUint(uint64(d.Remaining), 10),
	}

	c.DataFromReader(http.StatusOK, int64(d.SizeBytes), mimeType, d.Body, extraHeaders)
}

func (lc *LinkController) DeleteLinkHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("link_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
		return
	}

	if err := lc.linkService.DeleteLink(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to delete the link"},
		)
		lc.logger.Error("DeleteLink() error", zap.Error(err))
		return
	}

	c.Status(http.StatusNoContent)
}
