package httpd

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"imgforge/internal/core/domain"
	"imgforge/internal/core/domain/modifier"
	"imgforge/internal/core/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Handler is the thin HTTP shell over the core: it delivers the bytes
// and headers the image server answers with, and exposes the
// persistence and link-building surfaces.
type Handler struct {
	server    *service.ImageServer
	persister *service.Persister
	linker    *service.LinkGenerator
	srcset    *service.SrcSetGenerator
	registry  *modifier.Registry
	basePath  string
}

func NewHandler(server *service.ImageServer, persister *service.Persister,
	linker *service.LinkGenerator, srcset *service.SrcSetGenerator,
	registry *modifier.Registry, basePath string) *Handler {
	return &Handler{
		server:    server,
		persister: persister,
		linker:    linker,
		srcset:    srcset,
		registry:  registry,
		basePath:  basePath,
	}
}

// Register mounts the routes.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/-/link/*", h.buildLink)
	e.GET("/*", h.serveImage)
	e.PUT("/*", h.saveSource)
	e.DELETE("/*", h.deleteImage)
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type linkBody struct {
	URL    string `json:"url"`
	SrcSet string `json:"srcset,omitempty"`
}

type saveBody struct {
	Path string `json:"path"`
}

func (h *Handler) serveImage(c echo.Context) error {
	resp, err := h.server.Serve(c.Request().Context(), c.Request().RequestURI)
	if err != nil {
		return h.fail(c, err)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderCacheControl, resp.CacheControl)
	header.Set("Expires", resp.Expires)

	return c.Blob(http.StatusOK, resp.ContentType, resp.Body)
}

func (h *Handler) saveSource(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.fail(c, domain.WrapRequestError(domain.ErrFilesystem, "reading request body failed", err))
	}
	if len(data) == 0 {
		return h.fail(c, domain.NewRequestError(domain.ErrPathFormat, "empty request body"))
	}

	pi := domain.ParseSourcePath(h.relPath(c))
	if pi.Name == "" {
		return h.fail(c, domain.NewRequestError(domain.ErrPathFormat, "missing image name"))
	}

	res := &domain.Resource{Path: pi.WithSource(), Data: data}
	saved, err := h.persister.Save(c.Request().Context(), res)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusCreated, saveBody{Path: saved})
}

func (h *Handler) deleteImage(c echo.Context) error {
	rel := h.relPath(c)
	opts := service.DeleteOptions{CacheOnly: c.QueryParam("cache_only") == "true"}

	// A path carrying a modifier segment addresses one cached variant;
	// anything else is a source path with its derived variants.
	pi, err := h.server.ParsePath(rel)
	if err != nil {
		pi = domain.ParseSourcePath(rel).WithSource()
		if pi.Name == "" {
			return h.fail(c, domain.NewRequestError(domain.ErrPathFormat, "missing image name"))
		}
	}

	if err := h.persister.Delete(c.Request().Context(), pi, opts); err != nil {
		return h.fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// buildLink answers the externally addressable URL for a variant path,
// plus a srcset when widths or densities are requested.
func (h *Handler) buildLink(c echo.Context) error {
	pi, err := h.server.ParsePath(strings.Trim(c.Param("*"), "/"))
	if err != nil {
		return h.fail(c, err)
	}
	pi.Version = c.QueryParam("v")

	link, err := h.linker.Link(pi)
	if err != nil {
		return h.fail(c, err)
	}

	body := linkBody{URL: link}

	if widths := parseInts(c.QueryParam("widths")); len(widths) > 0 {
		body.SrcSet, err = h.srcset.Generate(service.NewWDescriptor(h.registry, widths), pi)
	} else if densities := parseFloats(c.QueryParam("densities")); len(densities) > 0 {
		body.SrcSet, err = h.srcset.Generate(service.NewXDescriptor(h.registry, densities), pi)
	}
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, body)
}

func (h *Handler) fail(c echo.Context, err error) error {
	status := domain.HTTPStatus(err)

	evt := log.Warn()
	if status == http.StatusInternalServerError {
		evt = log.Error()
	}
	evt.Err(err).Str("uri", c.Request().RequestURI).Int("status", status).Msg("request failed")

	return c.JSON(status, errorBody{Code: status, Message: domain.UserMessage(err)})
}

func (h *Handler) relPath(c echo.Context) string {
	return strings.Trim(strings.TrimPrefix(c.Request().URL.Path, h.basePath), "/")
}

func parseInts(raw string) []int {
	if raw == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}

func parseFloats(raw string) []float64 {
	if raw == "" {
		return nil
	}
	var out []float64
	for _, part := range strings.Split(raw, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
}
