package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dgallion1/romajiapi/internal/config"
	"github.com/dgallion1/romajiapi/internal/markup"
	"github.com/dgallion1/romajiapi/internal/news"
	"github.com/dgallion1/romajiapi/internal/pipeline"
	"github.com/dgallion1/romajiapi/internal/romaji"
	"github.com/dgallion1/romajiapi/internal/translate"
)

const testToken = "secret"

type fakeRomanizer struct {
	lastParticles bool
}

func (f *fakeRomanizer) Romaji(_ context.Context, text string) (string, error) {
	return "roma(" + text + ")", nil
}

func (f *fakeRomanizer) RomajiHTML(_ context.Context, doc string) (string, error) {
	if strings.Contains(doc, "<b>") && !strings.Contains(doc, "</b>") {
		return "", fmt.Errorf("%w: unclosed <b>", markup.ErrMalformedMarkup)
	}
	return "html(" + doc + ")", nil
}

func (f *fakeRomanizer) FuriganaHTML(_ context.Context, doc string) (string, error) {
	return "ruby(" + doc + ")", nil
}

func (f *fakeRomanizer) Slug(_ context.Context, text string) (string, error) {
	return "slug-" + text, nil
}

func (f *fakeRomanizer) Tokenize(_ context.Context, text string, withParticles bool) ([]string, error) {
	f.lastParticles = withParticles
	if text == "" {
		return nil, nil
	}
	return strings.Fields(text), nil
}

func (f *fakeRomanizer) TransformLine(_ context.Context, line string) (romaji.Line, error) {
	return romaji.Line{Origin: line, Words: []romaji.Word{{Text: line}}}, nil
}

func (f *fakeRomanizer) TransformText(ctx context.Context, text string) ([]romaji.Line, error) {
	out := []romaji.Line{}
	for _, l := range strings.Split(text, "\n") {
		if l != "" {
			tl, _ := f.TransformLine(ctx, l)
			out = append(out, tl)
		}
	}
	return out, nil
}

type fakeTranslator struct {
	err error
}

func (f fakeTranslator) Text(_ context.Context, text, target, source string) (string, error) {
	if text == "" {
		return "", translate.ErrEmptyText
	}
	if f.err != nil {
		return "partial", f.err
	}
	return fmt.Sprintf("%s>%s:%s", source, target, text), nil
}

func (f fakeTranslator) Array(_ context.Context, texts []string, target, _ string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = target + ":" + t
	}
	return out, nil
}

type fakeNews struct {
	err error
}

func (f fakeNews) Search(context.Context) ([]news.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []news.Article{{ID: 1, Title: "見出し", Text: "一行目\n\n二行目"}}, nil
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs map[string]*pipeline.Job
	full bool
}

func (f *fakeJobs) Submit(job *pipeline.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return pipeline.ErrQueueFull
	}
	if f.jobs == nil {
		f.jobs = map[string]*pipeline.Job{}
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobs) GetJob(id string) *pipeline.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[id]
}

func (f *fakeJobs) QueueDepth() int { return 0 }

func testConfig() config.Config {
	return config.Config{
		AuthenticationKey: testToken,
		OpenRouterModel:   "test-model",
		FreePayloadLimit:  350,
		RateAuthPerSecond: 1000,
		RateAnonPerMinute: 1000,
		MaxUploadBytes:    1 << 20,
	}
}

func newTestServer(t *testing.T, deps Deps, cfg config.Config) *Server {
	t.Helper()
	if deps.Romaji == nil {
		deps.Romaji = &fakeRomanizer{}
	}
	if deps.Translator == nil {
		deps.Translator = fakeTranslator{}
	}
	if deps.Jobs == nil {
		deps.Jobs = &fakeJobs{}
	}
	srv, err := NewServer(deps, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, authed bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())

	rec, out := do(t, srv, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	rec, out = do(t, srv, http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Version, out["version"])
}

func TestRomaji(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())

	rec, out := do(t, srv, http.MethodPost, "/romaji", strings.NewReader(`{"str":"日本"}`), false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["auth"])
	assert.Equal(t, "roma(日本)", out["result"])

	rec, out = do(t, srv, http.MethodPost, "/romaji", strings.NewReader(`{"str":"<p>日本</p>","html":true}`), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["auth"])
	assert.Equal(t, "html(<p>日本</p>)", out["result"])
}

func TestRomaji_MalformedHTML(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())
	rec, out := do(t, srv, http.MethodPost, "/romaji", strings.NewReader(`{"str":"<b>日本","html":true}`), false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, msgBadHTML, out["error"])
}

func TestRomaji_BadBody(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())

	rec, _ := do(t, srv, http.MethodPost, "/romaji", strings.NewReader(`{"html":true}`), false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, srv, http.MethodPost, "/romaji", strings.NewReader(`not json`), false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFurigana_RequiresHTML(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())

	rec, out := do(t, srv, http.MethodPost, "/furigana", strings.NewReader(`{"str":"日本"}`), false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "html params must be true", out["error"])

	rec, out = do(t, srv, http.MethodPost, "/furigana", strings.NewReader(`{"str":"日本","html":true}`), false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ruby(日本)", out["result"])
}

func TestSlug(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())
	rec, out := do(t, srv, http.MethodPost, "/slug", strings.NewReader(`{"str":"東京"}`), false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "slug-東京", out["result"])
}

func TestTokenizer_ParticleDefault(t *testing.T) {
	rom := &fakeRomanizer{}
	srv := newTestServer(t, Deps{Romaji: rom}, testConfig())

	rec, out := do(t, srv, http.MethodPost, "/tokenizer", strings.NewReader(`{"str":"a b"}`), false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"a", "b"}, out["result"])
	assert.True(t, rom.lastParticles)

	rec, out = do(t, srv, http.MethodPost, "/tokenizer", strings.NewReader(`{"str":"","with_particle":false}`), false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, out["result"])
	assert.False(t, rom.lastParticles)
}

func TestFreePayloadLimit(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())
	big := fmt.Sprintf(`{"str":%q}`, strings.Repeat("あ", 200))

	rec, _ := do(t, srv, http.MethodPost, "/romaji", strings.NewReader(big), false)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec, _ = do(t, srv, http.MethodPost, "/romaji", strings.NewReader(big), true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFreePayloadLimit_UnknownLength(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())
	big := fmt.Sprintf(`{"str":%q}`, strings.Repeat("a", 400))

	req := httptest.NewRequest(http.MethodPost, "/romaji", io.NopCloser(strings.NewReader(big)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	srv := newTestServer(t, Deps{News: fakeNews{}}, testConfig())

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/get-news"},
		{http.MethodPost, "/transform-text"},
		{http.MethodGet, "/translate?str=x"},
		{http.MethodPost, "/translate-array"},
		{http.MethodPost, "/api/jobs"},
		{http.MethodGet, "/api/jobs/abc"},
		{http.MethodGet, "/api/stats/translate"},
	} {
		rec, _ := do(t, srv, tc.method, tc.path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}

	req := httptest.NewRequest(http.MethodGet, "/get-news", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmptyAuthKeyNeverAuthenticates(t *testing.T) {
	cfg := testConfig()
	cfg.AuthenticationKey = ""
	srv := newTestServer(t, Deps{}, cfg)

	req := httptest.NewRequest(http.MethodPost, "/transform-text", strings.NewReader(`{"text":"x"}`))
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit_Anonymous(t *testing.T) {
	cfg := testConfig()
	cfg.RateAnonPerMinute = 3
	srv := newTestServer(t, Deps{}, cfg)

	for i := 0; i < 3; i++ {
		rec, _ := do(t, srv, http.MethodGet, "/", nil, false)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
	rec, _ := do(t, srv, http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Authenticated clients use a separate bucket.
	rec, _ = do(t, srv, http.MethodGet, "/", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health checks are never limited.
	rec, _ = do(t, srv, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_ConcurrentFirstRequestsShareBucket(t *testing.T) {
	l, err := NewRateLimiter(10, 3, 16)
	require.NoError(t, err)

	const n = 32
	got := make([]*rate.Limiter, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = l.limiter("198.51.100.7_unauthenticated", false)
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, got[0], got[i], "request %d got its own bucket", i)
	}
}

func TestRateKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:4444"
	assert.Equal(t, "203.0.113.5_authenticated", rateKey(req, true))
	assert.Equal(t, "203.0.113.5_unauthenticated", rateKey(req, false))
}

func TestNews(t *testing.T) {
	srv := newTestServer(t, Deps{News: fakeNews{}}, testConfig())
	rec, out := do(t, srv, http.MethodGet, "/get-news", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	items := out["news"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "見出し", item["title"].(map[string]any)["origin"])
	assert.Len(t, item["content"], 2)
}

func TestNews_NotConfigured(t *testing.T) {
	srv := newTestServer(t, Deps{News: fakeNews{err: news.ErrNotConfigured}}, testConfig())
	rec, _ := do(t, srv, http.MethodGet, "/get-news", nil, true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTransformText(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())
	rec, out := do(t, srv, http.MethodPost, "/transform-text", strings.NewReader(`{"text":"一\n\n二"}`), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["result"], 2)
}

func TestTranslate(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())

	rec, out := do(t, srv, http.MethodGet, "/translate?str=hello&source=fr", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fr>EN:hello", out["result"])
	assert.Equal(t, true, out["complete"])

	rec, _ = do(t, srv, http.MethodGet, "/translate", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranslate_Errors(t *testing.T) {
	incomplete := fmt.Errorf("%w: chunk 2 of 2: boom", translate.ErrIncomplete)
	srv := newTestServer(t, Deps{Translator: fakeTranslator{err: incomplete}}, testConfig())
	rec, out := do(t, srv, http.MethodGet, "/translate?str=hello", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", out["result"])
	assert.Equal(t, false, out["complete"])

	srv = newTestServer(t, Deps{Translator: fakeTranslator{err: translate.ErrNotConfigured}}, testConfig())
	rec, _ = do(t, srv, http.MethodGet, "/translate?str=hello", nil, true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	srv = newTestServer(t, Deps{Translator: fakeTranslator{err: errors.New("boom")}}, testConfig())
	rec, _ = do(t, srv, http.MethodGet, "/translate?str=hello", nil, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTranslateArray(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())
	rec, out := do(t, srv, http.MethodPost, "/translate-array", strings.NewReader(`{"texts":["a","b"],"target":"de"}`), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"de:a", "de:b"}, out["result"])

	mismatch := fmt.Errorf("group 1: %w", translate.ErrCountMismatch)
	srv = newTestServer(t, Deps{Translator: fakeTranslator{err: mismatch}}, testConfig())
	rec, _ = do(t, srv, http.MethodPost, "/translate-array", strings.NewReader(`{"texts":["a"]}`), true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTranslateStats(t *testing.T) {
	srv := newTestServer(t, Deps{}, testConfig())
	rec, _ := do(t, srv, http.MethodGet, "/api/stats/translate", nil, true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	stats := translate.NewStats(time.Hour)
	stats.Record(50*time.Millisecond, false)
	srv = newTestServer(t, Deps{Stats: stats}, testConfig())
	rec, out := do(t, srv, http.MethodGet, "/api/stats/translate", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-model", out["model"])
}

func multipartBody(t *testing.T, fields map[string]string, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func submit(t *testing.T, srv http.Handler, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestSubmitJob(t *testing.T) {
	jobs := &fakeJobs{}
	srv := newTestServer(t, Deps{Jobs: jobs}, testConfig())

	body, ct := multipartBody(t, map[string]string{"kind": "furigana"}, "file", "../notes.txt", "日本語")
	rec, out := submit(t, srv, "/api/jobs", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "furigana", out["kind"])

	id := out["job_id"].(string)
	assert.Equal(t, "/api/jobs/"+id, out["poll_url"])
	job := jobs.GetJob(id)
	require.NotNil(t, job)
	assert.Equal(t, "notes.txt", job.Filename)
	assert.Equal(t, []byte("日本語"), job.FileData())

	rec, status := do(t, srv, http.MethodGet, "/api/jobs/"+id, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "queued", status["status"])

	rec, _ = do(t, srv, http.MethodGet, "/api/jobs/missing", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitJob_Rejections(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 4
	srv := newTestServer(t, Deps{Jobs: &fakeJobs{}}, cfg)

	body, ct := multipartBody(t, nil, "file", "image.png", "x")
	rec, _ := submit(t, srv, "/api/jobs", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, map[string]string{"kind": "summarize"}, "file", "a.txt", "x")
	rec, _ = submit(t, srv, "/api/jobs", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, nil, "file", "a.txt", "too large")
	rec, _ = submit(t, srv, "/api/jobs", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	srv = newTestServer(t, Deps{Jobs: &fakeJobs{full: true}}, testConfig())
	body, ct = multipartBody(t, nil, "file", "a.txt", "x")
	rec, _ = submit(t, srv, "/api/jobs", body, ct)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBatchSubmit(t *testing.T) {
	jobs := &fakeJobs{}
	srv := newTestServer(t, Deps{Jobs: jobs}, testConfig())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("target", "fr"))
	for name, content := range map[string]string{"a.txt": "one", "b.exe": "two"} {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(content))
	}
	require.NoError(t, mw.Close())

	rec, out := submit(t, srv, "/api/jobs/batch", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusAccepted, rec.Code)

	results := out["jobs"].([]any)
	require.Len(t, results, 2)
	accepted := 0
	for _, r := range results {
		m := r.(map[string]any)
		if id, ok := m["job_id"].(string); ok {
			accepted++
			job := jobs.GetJob(id)
			require.NotNil(t, job)
			assert.Equal(t, "fr", job.Target)
			assert.Equal(t, pipeline.KindTranslate, job.Kind)
		} else {
			assert.Contains(t, m["error"], "unsupported file type")
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		"notes.txt":        "notes.txt",
		"":                 "unnamed",
		`dir\file.md`:      "dir_file.md",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}
