package httpd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"imgforge/internal/adapters/processor"
	"imgforge/internal/adapters/storage"
	"imgforge/internal/core/domain"
	"imgforge/internal/core/domain/modifier"
	"imgforge/internal/core/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerStack struct {
	echo   *echo.Echo
	source *storage.Filesystem
	cache  *storage.Filesystem
}

func newHandlerStack(t *testing.T) handlerStack {
	t.Helper()

	registry, err := modifier.NewRegistry(modifier.Builtins()...)
	require.NoError(t, err)
	codec := modifier.NewCodec(registry, domain.CodecConfig{})
	presets := modifier.NewPresetTable()

	source := storage.NewMemory()
	cache := storage.NewMemory()

	pipeline := service.NewPipeline(processor.NewImagingProcessor(),
		domain.EncodeConfig{DefaultQuality: 90, DefaultFormat: "jpg"}, domain.DefaultTypes())
	persister := service.NewPersister(source, cache, codec, registry, pipeline)

	resolver, err := service.NewNoImageResolver(domain.NoImageConfig{})
	require.NoError(t, err)

	linkCfg := domain.LinkConfig{
		Host:           "http://img.test",
		VersionParam:   "_v",
		SignatureParam: "_s",
	}

	server := service.NewImageServer(
		domain.ServerConfig{CacheMaxAge: 3600},
		linkCfg, domain.DefaultTypes(), registry, codec, presets, persister, resolver, nil, nil)
	linker := service.NewLinkGenerator(linkCfg, codec, presets, nil)
	srcset := service.NewSrcSetGenerator(linker)

	e := echo.New()
	NewHandler(server, persister, linker, srcset, registry, "").Register(e)

	return handlerStack{echo: e, source: source, cache: cache}
}

func sourcePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func do(stack handlerStack, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	stack.echo.ServeHTTP(rec, req)
	return rec
}

func TestServeImageEndpoint(t *testing.T) {
	stack := newHandlerStack(t)
	ctx := context.Background()

	require.NoError(t, stack.source.Write(ctx, "photos/cat", sourcePNG(t, 100, 50)))

	rec := do(stack, httptest.NewRequest(http.MethodGet, "/photos/w:20,h:10/cat.jpg", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get(echo.HeaderCacheControl))
	assert.NotEmpty(t, rec.Header().Get("Expires"))

	img, _, err := image.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
}

func TestServeImageErrors(t *testing.T) {
	stack := newHandlerStack(t)
	ctx := context.Background()

	require.NoError(t, stack.source.Write(ctx, "photos/cat", sourcePNG(t, 100, 50)))

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "bad modifier", target: "/photos/w:abc/cat.jpg", status: http.StatusBadRequest},
		{name: "missing source", target: "/photos/w:20/missing.jpg", status: http.StatusNotFound},
		{name: "no modifier segment", target: "/cat.jpg", status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(stack, httptest.NewRequest(http.MethodGet, tc.target, nil))

			require.Equal(t, tc.status, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestSaveSourceEndpoint(t *testing.T) {
	stack := newHandlerStack(t)

	req := httptest.NewRequest(http.MethodPut, "/photos/cat.png",
		bytes.NewReader(sourcePNG(t, 100, 50)))
	rec := do(stack, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var body saveBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "photos/cat", body.Path)

	ok, err := stack.source.Exists(context.Background(), "photos/cat")
	require.NoError(t, err)
	assert.True(t, ok)

	// the stored source is immediately servable
	rec = do(stack, httptest.NewRequest(http.MethodGet, "/photos/w:20/cat.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaveSourceEmptyBody(t *testing.T) {
	stack := newHandlerStack(t)

	rec := do(stack, httptest.NewRequest(http.MethodPut, "/photos/cat.png", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteVariantEndpoint(t *testing.T) {
	stack := newHandlerStack(t)
	ctx := context.Background()

	require.NoError(t, stack.cache.Write(ctx, "photos/w:20/cat.jpg", []byte("variant")))

	rec := do(stack, httptest.NewRequest(http.MethodDelete, "/photos/w:20/cat.jpg", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	ok, err := stack.cache.Exists(ctx, "photos/w:20/cat.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteSourceEndpoint(t *testing.T) {
	stack := newHandlerStack(t)
	ctx := context.Background()

	require.NoError(t, stack.source.Write(ctx, "photos/cat", sourcePNG(t, 4, 2)))
	require.NoError(t, stack.cache.Write(ctx, "photos/w:20/cat.jpg", []byte("variant")))

	t.Run("cache only", func(t *testing.T) {
		rec := do(stack, httptest.NewRequest(http.MethodDelete, "/photos/cat.png?cache_only=true", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)

		ok, err := stack.source.Exists(ctx, "photos/cat")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = stack.cache.Exists(ctx, "photos/w:20/cat.jpg")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("source and variants", func(t *testing.T) {
		rec := do(stack, httptest.NewRequest(http.MethodDelete, "/photos/cat.png", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)

		ok, err := stack.source.Exists(ctx, "photos/cat")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestBuildLinkEndpoint(t *testing.T) {
	stack := newHandlerStack(t)

	rec := do(stack, httptest.NewRequest(http.MethodGet, "/-/link/photos/w:200,h:100/cat.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body linkBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "http://img.test/photos/h:100,w:200/cat.jpg", body.URL)
	assert.Empty(t, body.SrcSet)
}

func TestBuildLinkWithSrcSet(t *testing.T) {
	stack := newHandlerStack(t)

	rec := do(stack, httptest.NewRequest(http.MethodGet,
		"/-/link/photos/h:100/cat.jpg?widths=100,200", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body linkBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.SrcSet, "http://img.test/photos/h:100,w:100/cat.jpg 100w")
	assert.Contains(t, body.SrcSet, "http://img.test/photos/h:100,w:200/cat.jpg 200w")
}

func TestBuildLinkSourcePathRejected(t *testing.T) {
	stack := newHandlerStack(t)

	rec := do(stack, httptest.NewRequest(http.MethodGet, "/-/link/cat.jpg", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
