package web

import (
	"bytes"
	"context"
	"maps"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/emiliopalmerini/mltrainer/internal/adapters/memory"
	"github.com/emiliopalmerini/mltrainer/internal/adapters/mlbackend"
	"github.com/emiliopalmerini/mltrainer/internal/domain"
	"github.com/emiliopalmerini/mltrainer/internal/flow"
	"github.com/emiliopalmerini/mltrainer/internal/ports"
)

// browser replays the session cookie like a real browser would.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newBrowser(t *testing.T, backend ports.MLBackend) *browser {
	t.Helper()
	store, err := memory.NewSessionStore[*Workspace](16, nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	srv := NewServer(Config{MaxUploadBytes: 1 << 20}, flow.Deps{
		Backend: backend,
		Logger:  zaptest.NewLogger(t),
	}, store)
	return &browser{t: t, handler: srv.Handler()}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			b.cookie = c
		}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return b.do(req)
}

func (b *browser) postFile(path, name string, content []byte) *httptest.ResponseRecorder {
	b.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		b.t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("HX-Request", "true")
	return b.do(req)
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("expected body to contain %q, got:\n%s", want, body)
	}
}

func assertNotContains(t *testing.T, body, unwanted string) {
	t.Helper()
	if strings.Contains(body, unwanted) {
		t.Errorf("expected body not to contain %q, got:\n%s", unwanted, body)
	}
}

func TestHealth(t *testing.T) {
	b := newBrowser(t, &mlbackend.MockClient{})
	rec := b.get("/health")
	assertStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "ok" {
		t.Errorf("expected ok, got %q", rec.Body.String())
	}
}

func TestStaticAssets(t *testing.T) {
	b := newBrowser(t, &mlbackend.MockClient{})
	rec := b.get("/static/app.css")
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), ".card")
}

func TestNotFound(t *testing.T) {
	b := newBrowser(t, &mlbackend.MockClient{})
	rec := b.get("/models/latest")
	assertStatus(t, rec, http.StatusNotFound)
	assertContains(t, rec.Body.String(), "Page not found")
	assertContains(t, rec.Body.String(), "/models/latest")
	assertContains(t, rec.Body.String(), `href="/predict"`)
}

func TestTrainingPage_SetsSessionCookie(t *testing.T) {
	b := newBrowser(t, &mlbackend.MockClient{})
	rec := b.get("/")

	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), "<!DOCTYPE html>")
	assertContains(t, rec.Body.String(), "Choose CSV File")
	if b.cookie == nil || b.cookie.Value == "" {
		t.Fatal("expected session cookie")
	}
	if !b.cookie.HttpOnly {
		t.Error("expected HttpOnly session cookie")
	}
}

func TestTrainingFlow_UploadChooseTargetTrain(t *testing.T) {
	var (
		uploaded   *domain.File
		sentTarget string
	)
	backend := &mlbackend.MockClient{
		UploadDatasetFunc: func(ctx context.Context, file *domain.File) ([]string, error) {
			uploaded = file
			return []string{"a", "b", "c"}, nil
		},
		TrainFunc: func(ctx context.Context, target string) (string, error) {
			sentTarget = target
			return "/predict", nil
		},
	}
	b := newBrowser(t, backend)
	b.get("/")

	rec := b.postFile("/training/file", "data.csv", []byte("a;b;c\n1;2;3\n"))
	assertStatus(t, rec, http.StatusOK)
	assertNotContains(t, rec.Body.String(), "<!DOCTYPE html>")
	assertContains(t, rec.Body.String(), "data.csv")
	assertContains(t, rec.Body.String(), ">Upload<")

	rec = b.postForm("/training/upload", nil, true)
	assertStatus(t, rec, http.StatusOK)
	if uploaded == nil || string(uploaded.Content) != "a;b;c\n1;2;3\n" {
		t.Fatalf("unexpected upload %+v", uploaded)
	}
	body := rec.Body.String()
	for _, col := range []string{"a", "b", "c"} {
		assertContains(t, body, `<option value="`+col+`">`+col+`</option>`)
	}
	if got := strings.Count(body, "<option"); got != 4 {
		t.Errorf("expected placeholder plus 3 options, got %d", got)
	}

	rec = b.postForm("/training/target", url.Values{"target_variable": {"b"}}, true)
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), `<option value="b" selected>b</option>`)
	assertContains(t, rec.Body.String(), "Train Models")

	rec = b.postForm("/training/train", nil, true)
	assertStatus(t, rec, http.StatusOK)
	if sentTarget != "b" {
		t.Errorf("expected target b, got %q", sentTarget)
	}
	assertContains(t, rec.Body.String(), "Models trained successfully!")
	assertContains(t, rec.Body.String(), `href="/predict"`)
}

func TestTrainingFlow_UploadWithoutFile(t *testing.T) {
	calls := 0
	backend := &mlbackend.MockClient{
		UploadDatasetFunc: func(ctx context.Context, file *domain.File) ([]string, error) {
			calls++
			return nil, nil
		},
	}
	b := newBrowser(t, backend)
	b.get("/")

	rec := b.postForm("/training/upload", nil, false)
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), "<!DOCTYPE html>")
	assertContains(t, rec.Body.String(), domain.MsgSelectFile)
	if calls != 0 {
		t.Errorf("expected no backend call, got %d", calls)
	}

	rec = b.postForm("/training/dismiss", nil, true)
	assertNotContains(t, rec.Body.String(), domain.MsgSelectFile)
}

func TestTrainingFlow_UploadMissingColumns(t *testing.T) {
	backend := &mlbackend.MockClient{
		UploadDatasetFunc: func(ctx context.Context, file *domain.File) ([]string, error) {
			return nil, mlbackend.ErrMalformedResponse
		},
	}
	b := newBrowser(t, backend)
	b.get("/")
	b.postFile("/training/file", "data.csv", []byte("x"))

	rec := b.postForm("/training/upload", nil, true)
	assertContains(t, rec.Body.String(), domain.MsgUploadFailed)
	assertNotContains(t, rec.Body.String(), "Target Variable")
}

func TestTrainingFlow_NewFileResetsColumns(t *testing.T) {
	backend := &mlbackend.MockClient{
		UploadDatasetFunc: func(ctx context.Context, file *domain.File) ([]string, error) {
			return []string{"a"}, nil
		},
	}
	b := newBrowser(t, backend)
	b.get("/")
	b.postFile("/training/file", "one.csv", []byte("a\n"))
	rec := b.postForm("/training/upload", nil, true)
	assertContains(t, rec.Body.String(), "Target Variable")

	rec = b.postFile("/training/file", "two.csv", []byte("b\n"))
	assertContains(t, rec.Body.String(), "two.csv")
	assertNotContains(t, rec.Body.String(), "Target Variable")
}

func TestTrainingFlow_FileLockedDuringUpload(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := &mlbackend.MockClient{
		UploadDatasetFunc: func(ctx context.Context, file *domain.File) ([]string, error) {
			close(started)
			<-release
			return []string{"old_a", "old_b"}, nil
		},
	}
	b := newBrowser(t, backend)
	b.get("/")
	b.postFile("/training/file", "old.csv", []byte("old_a;old_b\n"))

	inflight := &browser{t: t, handler: b.handler, cookie: b.cookie}
	done := make(chan string, 1)
	go func() {
		done <- inflight.postForm("/training/upload", nil, true).Body.String()
	}()
	<-started

	rec := b.postFile("/training/file", "new.csv", []byte("x\n"))
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), "old.csv")
	assertNotContains(t, rec.Body.String(), "new.csv")
	assertContains(t, rec.Body.String(), `accept=".csv" hidden disabled>`)

	close(release)
	body := <-done
	assertContains(t, body, "old.csv")
	assertContains(t, body, `<option value="old_a">old_a</option>`)
}

func TestTrainingFlow_TargetLockedDuringTrain(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var sentTarget string
	backend := &mlbackend.MockClient{
		UploadDatasetFunc: func(ctx context.Context, file *domain.File) ([]string, error) {
			return []string{"a", "b", "c"}, nil
		},
		TrainFunc: func(ctx context.Context, target string) (string, error) {
			sentTarget = target
			close(started)
			<-release
			return "/predict", nil
		},
	}
	b := newBrowser(t, backend)
	b.get("/")
	b.postFile("/training/file", "data.csv", []byte("a;b;c\n"))
	b.postForm("/training/upload", nil, true)
	b.postForm("/training/target", url.Values{"target_variable": {"b"}}, true)

	inflight := &browser{t: t, handler: b.handler, cookie: b.cookie}
	done := make(chan string, 1)
	go func() {
		done <- inflight.postForm("/training/train", nil, true).Body.String()
	}()
	<-started

	rec := b.postForm("/training/train", url.Values{"target_variable": {"c"}}, true)
	assertContains(t, rec.Body.String(), `<option value="b" selected>b</option>`)
	assertNotContains(t, rec.Body.String(), `<option value="c" selected>`)

	close(release)
	body := <-done
	if sentTarget != "b" {
		t.Errorf("expected target b trained, got %q", sentTarget)
	}
	assertContains(t, body, `<option value="b" selected>b</option>`)
	assertContains(t, body, "Models trained successfully!")
}

func TestTrainingFlow_TrainWithoutTarget(t *testing.T) {
	b := newBrowser(t, &mlbackend.MockClient{
		TrainFunc: func(ctx context.Context, target string) (string, error) {
			t.Error("backend must not be called")
			return "", nil
		},
	})
	b.get("/")

	rec := b.postForm("/training/train", nil, true)
	assertContains(t, rec.Body.String(), domain.MsgSelectTarget)
}

func TestTrainingFlow_FileTooLarge(t *testing.T) {
	b := newBrowser(t, &mlbackend.MockClient{})
	b.get("/")

	rec := b.postFile("/training/file", "big.csv", bytes.Repeat([]byte("a"), 2<<20))
	assertStatus(t, rec, http.StatusRequestEntityTooLarge)
}

func TestTrainingPage_RemountClearsState(t *testing.T) {
	b := newBrowser(t, &mlbackend.MockClient{})
	b.get("/")
	rec := b.postFile("/training/file", "data.csv", []byte("a\n"))
	assertContains(t, rec.Body.String(), "data.csv")

	rec = b.get("/")
	assertNotContains(t, rec.Body.String(), "data.csv")
}

func TestTrainingCard_EscapesColumnNames(t *testing.T) {
	backend := &mlbackend.MockClient{
		UploadDatasetFunc: func(ctx context.Context, file *domain.File) ([]string, error) {
			return []string{`<script>alert(1)</script>`}, nil
		},
	}
	b := newBrowser(t, backend)
	b.get("/")
	b.postFile("/training/file", "x.csv", []byte("x"))

	rec := b.postForm("/training/upload", nil, true)
	assertNotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	assertContains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestPredictionFlow_Scenario(t *testing.T) {
	var sent map[string]string
	backend := &mlbackend.MockClient{
		FeaturesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"age", "income"}, nil
		},
		PredictFunc: func(ctx context.Context, inputs map[string]string) (*domain.Prediction, error) {
			sent = inputs
			return &domain.Prediction{Value: "approved"}, nil
		},
	}
	b := newBrowser(t, backend)

	rec := b.get("/predict")
	assertStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	if got := strings.Count(body, `<input type="text"`); got != 2 {
		t.Fatalf("expected 2 inputs, got %d", got)
	}
	assertContains(t, body, `name="age" value=""`)
	assertContains(t, body, `name="income" value=""`)

	req := httptest.NewRequest(http.MethodPost, "/predict/field",
		strings.NewReader(url.Values{"age": {"34"}, "income": {""}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Trigger-Name", "age")
	rec = b.do(req)
	assertStatus(t, rec, http.StatusNoContent)

	rec = b.postForm("/predict/submit", nil, true)
	assertStatus(t, rec, http.StatusOK)
	if !maps.Equal(sent, map[string]string{"age": "34", "income": ""}) {
		t.Errorf("unexpected payload %v", sent)
	}
	assertContains(t, rec.Body.String(), "Prediction Result:")
	assertContains(t, rec.Body.String(), "approved")
}

func TestPredictionFlow_SubmitFoldsPostedValues(t *testing.T) {
	var sent map[string]string
	backend := &mlbackend.MockClient{
		FeaturesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"age", "income"}, nil
		},
		PredictFunc: func(ctx context.Context, inputs map[string]string) (*domain.Prediction, error) {
			sent = inputs
			return &domain.Prediction{Value: float64(1)}, nil
		},
	}
	b := newBrowser(t, backend)
	b.get("/predict")

	rec := b.postForm("/predict/submit", url.Values{"age": {"40"}, "income": {"1000"}, "extra": {"x"}}, false)
	assertStatus(t, rec, http.StatusOK)
	if !maps.Equal(sent, map[string]string{"age": "40", "income": "1000"}) {
		t.Errorf("unexpected payload %v", sent)
	}
	assertContains(t, rec.Body.String(), `<p class="prediction">1</p>`)
}

func TestPredictionFlow_UnknownField(t *testing.T) {
	backend := &mlbackend.MockClient{
		FeaturesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"age"}, nil
		},
	}
	b := newBrowser(t, backend)
	b.get("/predict")

	rec := b.postForm("/predict/field", url.Values{"name": {"height"}, "value": {"2"}}, false)
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestPredictionFlow_Failures(t *testing.T) {
	backend := &mlbackend.MockClient{
		FeaturesFunc: func(ctx context.Context) ([]string, error) {
			return nil, &mlbackend.StatusError{Code: http.StatusInternalServerError}
		},
		PredictFunc: func(ctx context.Context, inputs map[string]string) (*domain.Prediction, error) {
			return nil, context.DeadlineExceeded
		},
	}
	b := newBrowser(t, backend)

	rec := b.get("/predict")
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), domain.MsgFeaturesFailed)
	assertNotContains(t, rec.Body.String(), `<input type="text"`)

	rec = b.postForm("/predict/dismiss", nil, true)
	assertNotContains(t, rec.Body.String(), domain.MsgFeaturesFailed)

	rec = b.postForm("/predict/submit", nil, true)
	assertContains(t, rec.Body.String(), domain.MsgPredictFailed)
	assertNotContains(t, rec.Body.String(), "Prediction Result:")
}

func TestSessionsAreIsolatedPerBrowser(t *testing.T) {
	backend := &mlbackend.MockClient{}
	store, err := memory.NewSessionStore[*Workspace](16, nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	srv := NewServer(Config{}, flow.Deps{Backend: backend}, store)

	alice := &browser{t: t, handler: srv.Handler()}
	bob := &browser{t: t, handler: srv.Handler()}
	alice.get("/")
	bob.get("/")

	alice.postFile("/training/file", "alice.csv", []byte("a"))
	rec := bob.postForm("/training/dismiss", nil, true)
	assertNotContains(t, rec.Body.String(), "alice.csv")

	if store.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", store.Len())
	}
}

func TestNewSessionLogsSessionCount(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	store, err := memory.NewSessionStore[*Workspace](16, nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	srv := NewServer(Config{}, flow.Deps{Backend: &mlbackend.MockClient{}, Logger: zap.New(core)}, store)

	(&browser{t: t, handler: srv.Handler()}).get("/")
	(&browser{t: t, handler: srv.Handler()}).get("/")

	entries := logs.FilterMessage("new browser session").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 new session entries, got %d", len(entries))
	}
	if got := entries[1].ContextMap()["sessions"]; got != int64(2) {
		t.Errorf("expected sessions=2 on second entry, got %v", got)
	}
}
