package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/carline/apps/api/echo"
	"github.com/trezcool/carline/core/access"
)

type httpErr struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantErr  *httpErr
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, p *access.Principal) string {
	token, err := GenerateToken(GetPrincipalClaims(*p))
	require.NoError(t, err)
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into), rec.Body.String())
}

// do serves tt and checks its status code, and its error body when one is expected.
func do(t *testing.T, app Server, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)

	require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantErr != nil {
		var got httpErr
		decode(t, rec, &got)
		assert.Equal(t, tt.wantErr.Code, got.Code)
		if tt.wantErr.Message != "" {
			assert.Equal(t, tt.wantErr.Message, got.Message)
		}
		if tt.wantErr.Fields != nil {
			assert.Equal(t, tt.wantErr.Fields, got.Fields)
		}
	}
	return rec
}
