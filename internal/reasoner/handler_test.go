package reasoner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReasoner struct {
	content string
	err     error
	got     Request
}

func (s *stubReasoner) Interpret(ctx context.Context, req Request) (string, error) {
	s.got = req
	return s.content, s.err
}

func serve(h http.Handler, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, InterpretPath, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHandlerSuccess(t *testing.T) {
	up := &stubReasoner{content: "结果"}
	h := NewHandler(up, nil)

	rec := serve(h, http.MethodPost, `{"messages":[{"role":"system","content":"s"},{"role":"user","content":"u"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var c completion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	require.Len(t, c.Choices, 1)
	assert.Equal(t, RoleAssistant, c.Choices[0].Message.Role)
	assert.Equal(t, "结果", c.Choices[0].Message.Content)

	assert.Len(t, up.got.Messages, 2)
	assert.InDelta(t, DefaultTemperature, up.got.Temperature, 1e-9)
}

func TestHandlerTemperature(t *testing.T) {
	up := &stubReasoner{content: "x"}
	rec := serve(NewHandler(up, nil), http.MethodPost, `{"messages":[],"temperature":0.2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.2, up.got.Temperature, 1e-9)
}

func TestHandlerStatusCodes(t *testing.T) {
	log, hook := test.NewNullLogger()
	failing := NewHandler(&stubReasoner{err: errors.New("boom")}, log)
	ok := NewHandler(&stubReasoner{content: "x"}, log)

	rec := serve(ok, http.MethodGet, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = serve(NewHandler(nil, log), http.MethodPost, `{"messages":[]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "AI service not configured", errorOf(t, rec))

	for _, body := range []string{`{}`, `{"messages":"hi"}`, `not json`} {
		rec = serve(ok, http.MethodPost, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Invalid request: messages required", errorOf(t, rec))
	}

	rec = serve(failing, http.MethodPost, `{"messages":[{"role":"user","content":"u"}]}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "AI service error", errorOf(t, rec))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestProxyAgainstHandler(t *testing.T) {
	srv := httptest.NewServer(NewHandler(&stubReasoner{content: "往返"}, nil))
	defer srv.Close()

	content, err := NewProxy(srv.URL, srv.Client()).Interpret(context.Background(), NewRequest("s", "u"))
	require.NoError(t, err)
	assert.Equal(t, "往返", content)
}

func TestNewServer(t *testing.T) {
	srv := NewServer("127.0.0.1:0", 0, NewHandler(nil, nil))
	require.NotNil(t, srv)
}
