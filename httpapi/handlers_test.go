package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shapeseek/shapeseek"
	"github.com/shapeseek/shapeseek/blobstore"
	"github.com/shapeseek/shapeseek/catalog"
	"github.com/shapeseek/shapeseek/descriptor"
)

const cubeOBJ = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
f 1 3 2
f 1 4 3
f 5 6 7
f 5 7 8
f 1 2 6
f 1 6 5
f 2 3 7
f 2 7 6
f 3 4 8
f 3 8 7
f 4 1 5
f 4 5 8
`

func newTestServer(t *testing.T) (*httptest.Server, *shapeseek.Manager) {
	t.Helper()
	cat, err := catalog.OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)

	m, err := shapeseek.New(cat, blobstore.NewMemory(),
		shapeseek.WithLogger(shapeseek.NoopLogger()),
		shapeseek.WithExtractorOptions(descriptor.WithSeed(1)),
	)
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background()))
	t.Cleanup(func() { _ = m.Close() })

	h := NewHandler(m, func(o *HandlerOptions) {
		o.Logger = shapeseek.NoopLogger()
	})
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, m
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "cube.obj", []byte(cubeOBJ), nil)
	resp, err := http.Post(srv.URL+"/api/models", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var model modelResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&model))
	assert.Equal(t, int64(1), model.ID)
	assert.Equal(t, "cube.obj", model.Name)
	assert.Equal(t, "obj", model.Format)

	t.Run("unsupported format", func(t *testing.T) {
		body, contentType := multipartUpload(t, "part.step", []byte("junk"), nil)
		resp, err := http.Post(srv.URL+"/api/models", contentType, body)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	})

	t.Run("malformed mesh", func(t *testing.T) {
		body, contentType := multipartUpload(t, "bad.obj", []byte("not a mesh"), nil)
		resp, err := http.Post(srv.URL+"/api/models", contentType, body)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("missing file field", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("name", "cube"))
		require.NoError(t, mw.Close())

		resp, err := http.Post(srv.URL+"/api/models", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleSearch(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "cube.obj", []byte(cubeOBJ), nil)
	resp, err := http.Post(srv.URL+"/api/models", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body, contentType = multipartUpload(t, "query.obj", []byte(cubeOBJ), map[string]string{"limit": "5"})
	resp, err = http.Post(srv.URL+"/api/search", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sr searchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
	require.Len(t, sr.Results, 1)
	assert.Equal(t, int64(1), sr.Results[0].ID)
	assert.Equal(t, "cube.obj", sr.Results[0].Name)
	assert.InDelta(t, 1.0, float64(sr.Results[0].Similarity), 1e-5)

	t.Run("bad limit", func(t *testing.T) {
		body, contentType := multipartUpload(t, "query.obj", []byte(cubeOBJ), map[string]string{"limit": "zero"})
		resp, err := http.Post(srv.URL+"/api/search", contentType, body)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleModelEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "cube.obj", []byte(cubeOBJ), nil)
	resp, err := http.Post(srv.URL+"/api/models", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("get model", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/models/1")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var model modelResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&model))
		assert.Equal(t, "cube.obj", model.Name)
	})

	t.Run("download file", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/models/1/file")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, cubeOBJ, string(data))
	})

	t.Run("missing model", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/models/99")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHandleAdminAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/admin/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats shapeseek.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, "ready", stats.State)
	assert.Equal(t, descriptor.Dim, stats.Dimension)

	t.Run("rebuild", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/admin/rebuild", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics exposed", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(data), "shapeseek_http_requests_total")
	})
}

func TestHealthUnavailableBeforeInit(t *testing.T) {
	cat, err := catalog.OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	m, err := shapeseek.New(cat, blobstore.NewMemory(),
		shapeseek.WithLogger(shapeseek.NoopLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	h := NewHandler(m, func(o *HandlerOptions) { o.Logger = shapeseek.NoopLogger() })
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body, contentType := multipartUpload(t, "cube.obj", []byte(cubeOBJ), nil)
	resp, err = http.Post(fmt.Sprintf("%s/api/models", srv.URL), contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
