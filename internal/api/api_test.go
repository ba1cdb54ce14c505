package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/ingestion"
	"github.com/Divas-Gupta30/interview-agent/internal/interview"
)

type stubParser struct{ err error }

func (p stubParser) Parse(context.Context, string) (*ingestion.Parsed, error) {
	if p.err != nil {
		return nil, p.err
	}
	raw := []byte(`{"基本信息":{"姓名":"张三"},"项目经历":[],"技术总结":{"语言":"go","岗位":["后端"]}}`)
	var r ingestion.Resume
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &ingestion.Parsed{Resume: &r, Raw: raw}, nil
}

func newTestServer(t *testing.T, parser interview.ResumeParser, opts ...Option) *httptest.Server {
	t.Helper()
	logger := applog.Discard()
	machine := interview.NewMachine(
		interview.WithRunner(interview.StageInitial, interview.InitialRunner{}),
		interview.WithMachineLogger(logger),
	)
	svc := interview.NewService(t.TempDir(), machine, parser, interview.WithServiceLogger(logger))
	srv := httptest.NewServer(NewServer(svc, append(opts, WithLogger(logger))...).Router())
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Shutdown(context.Background())
	})
	return srv
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func startSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/start-interview", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "面试会话已创建", body["message"])
	id, _ := body["session_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func upload(t *testing.T, srv *httptest.Server, id, filename string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/start-interview/"+id+"/upload-pdf", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

// poll is safe to call from require.Eventually conditions.
func poll(url string) map[string]any {
	resp, err := http.Get(url)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	var out map[string]any
	if json.NewDecoder(resp.Body).Decode(&out) != nil {
		return nil
	}
	return out
}

func status(t *testing.T, srv *httptest.Server, id string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(srv.URL + "/status/" + id)
	require.NoError(t, err)
	return resp.StatusCode, decode(t, resp)
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t, stubParser{})
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "AI面试助手服务运行中", decode(t, resp)["message"])
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, stubParser{})
	for _, path := range []string{"/sessions/abc/answer", "/start-interview/abc/upload-pdf", "/status/abc"} {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode, path)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), path)
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST", path)
	}
}

func TestStatusUnknownSession(t *testing.T) {
	srv := newTestServer(t, stubParser{})
	code, body := status(t, srv, "nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, map[string]any{"error": "Session not found"}, body)
}

func TestUploadValidation(t *testing.T) {
	srv := newTestServer(t, stubParser{})
	id := startSession(t, srv)

	resp := upload(t, srv, "missing", "cv.pdf")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = upload(t, srv, id, "cv.docx")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "只支持PDF文件", decode(t, resp)["error"])

	_, body := status(t, srv, id)
	assert.Nil(t, body["candidate_name"])
}

func TestUploadParseFailure(t *testing.T) {
	srv := newTestServer(t, stubParser{err: errors.New("model unavailable")})
	id := startSession(t, srv)

	resp := upload(t, srv, id, "cv.pdf")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["error"], "model unavailable")

	srv2 := newTestServer(t, stubParser{err: ingestion.ErrMalformedResume})
	id2 := startSession(t, srv2)
	resp = upload(t, srv2, id2, "cv.pdf")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestInterviewOverHTTP(t *testing.T) {
	srv := newTestServer(t, stubParser{})
	id := startSession(t, srv)

	resp := upload(t, srv, id, "简历.pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "简历.pdf", body["filename"])
	assert.NotNil(t, body["parsed_resume"])

	code, st := status(t, srv, id)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "张三", st["candidate_name"])
	assert.NotNil(t, st["resume_path"])

	var pending string
	require.Eventually(t, func() bool {
		body := poll(srv.URL + "/sessions/" + id + "/messages?since=0")
		pending, _ = body["pending"].(string)
		return body["waiting"] == true
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, pending, "自我介绍")

	resp, err := http.Post(srv.URL+"/sessions/"+id+"/answer", "application/json", strings.NewReader(`{"answer":"我是张三"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		return poll(srv.URL+"/status/"+id)["status"] == string(interview.StageEnd)
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Post(srv.URL+"/sessions/"+id+"/answer", "application/json", strings.NewReader(`{"answer":"还在吗"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/sessions/" + id + "/reports")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestMessagesValidation(t *testing.T) {
	srv := newTestServer(t, stubParser{})
	id := startSession(t, srv)

	resp, err := http.Get(srv.URL + "/sessions/missing/messages")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/sessions/" + id + "/messages?since=abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Post(srv.URL+"/sessions/"+id+"/answer", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAbortSession(t *testing.T) {
	srv := newTestServer(t, stubParser{})
	id := startSession(t, srv)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		return poll(srv.URL+"/status/"+id)["status"] == string(interview.StageEnd)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, stubParser{})
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, "healthy", decode(t, resp)["status"])

	down := newTestServer(t, stubParser{}, WithHealthCheck("redis", func(context.Context) error {
		return errors.New("connection refused")
	}))
	resp, err = http.Get(down.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "redis connection failed", decode(t, resp)["error"])
}
