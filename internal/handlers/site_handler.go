package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/assets"
	"portfolio-site/internal/service"
	"portfolio-site/internal/shell"
	"portfolio-site/pkg/logger"
	"portfolio-site/pkg/utils"
)

const htmlContentType = "text/html; charset=utf-8"

type SiteHandler struct {
	service *service.SiteService
}

func NewSiteHandler(siteService *service.SiteService) *SiteHandler {
	return &SiteHandler{service: siteService}
}

// currentPath is the path the navigation bar is rendered against. It is
// taken from the request as the router resolved it and never altered by
// rendering.
func currentPath(c *gin.Context) string {
	return utils.NormalizePath(c.Request.URL.Path)
}

// RenderPage serves any GET path that has no dedicated route.
func (h *SiteHandler) RenderPage(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Header("Allow", "GET, HEAD")
		c.AbortWithStatus(http.StatusMethodNotAllowed)
		return
	}

	path := currentPath(c)
	page, err := h.service.RenderPage(c.Request.Context(), c.Request, path)
	if err != nil {
		h.renderError(c, path, err)
		return
	}

	if page.Status == http.StatusOK {
		etag := pageETag(page.Body)
		c.Header("ETag", etag)
		if match := c.GetHeader("If-None-Match"); match != "" && etagMatches(match, etag) {
			c.Status(http.StatusNotModified)
			return
		}
	}

	c.Data(page.Status, htmlContentType, page.Body)
}

// OpenAsset is the target of external-action links. It redirects to the
// resolved asset, which the browser opens in the new tab the link created.
func (h *SiteHandler) OpenAsset(c *gin.Context) {
	id := c.Param("id")

	target, err := h.service.ResolveAsset(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, assets.ErrUnknownAsset) {
			page, renderErr := h.service.RenderNotFound(c.Request.Context(), c.Request, currentPath(c))
			if renderErr != nil {
				h.renderError(c, currentPath(c), renderErr)
				return
			}
			c.Data(http.StatusNotFound, htmlContentType, page.Body)
			return
		}

		logger.Error(err, "Failed to resolve asset", map[string]interface{}{"asset": id})
		c.String(http.StatusBadGateway, "The requested file is temporarily unavailable.")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, target)
}

type navigationQuery struct {
	Path string `form:"path" binding:"omitempty,site_path"`
}

// Navigation reports the menu state for a path as JSON.
func (h *SiteHandler) Navigation(c *gin.Context) {
	var query navigationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path must be an absolute site path"})
		return
	}

	menu, err := h.service.Navigation(query.Path)
	if err != nil {
		logger.Error(err, "Failed to render navigation", map[string]interface{}{"path": query.Path})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "navigation unavailable"})
		return
	}

	c.JSON(http.StatusOK, menu)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *SiteHandler) renderError(c *gin.Context, path string, err error) {
	_ = c.Error(err)

	fields := map[string]interface{}{"path": path}
	if errors.Is(err, shell.ErrConfiguration) {
		fields["kind"] = "configuration"
	}
	logger.Error(err, "Failed to render page", fields)

	c.String(http.StatusInternalServerError, "Internal Server Error")
}
