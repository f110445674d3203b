package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore/memory"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/server/middleware"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/userdir"
)

func newTestServer(t *testing.T) *ResourceServer {
	users := userdir.NewStatic(
		[]userdir.User{
			{ID: "u1", DisplayName: "Ada Lovelace", Email: "ada@example.com", OrgID: "org1"},
			{ID: "u2", DisplayName: "Grace Hopper", Email: "grace@example.com", OrgID: "org1"},
		},
		[]userdir.Organization{
			{ID: "org1", DisplayName: "Acme Engineering"},
		},
	)
	s := NewServerWith(memory.New(), users)
	require.NoError(t, s.MountHandlers())
	return s
}

func executeTestRequest(t *testing.T, s *ResourceServer, method, path, userID string, body any) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if body != nil {
		setRequestBodyAndHeader(t, req, body)
	}
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func setRequestBodyAndHeader(t *testing.T, req *http.Request, data any) {
	var jsonData []byte
	if s, ok := data.(string); ok && json.Valid([]byte(s)) {
		jsonData = []byte(s)
	} else {
		var err error
		jsonData, err = json.Marshal(data)
		require.NoError(t, err, "Failed to marshal data into JSON")
	}
	req.Body = io.NopCloser(bytes.NewReader(jsonData))
	req.ContentLength = int64(len(jsonData))
	req.Header.Set("Content-Type", "application/json")
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), "body: %s", rr.Body.String())
}
