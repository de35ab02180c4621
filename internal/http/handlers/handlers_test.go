package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"profileai/internal/analysis"
	"profileai/internal/domain"
	"profileai/internal/editor"
	"profileai/internal/normalize"
	"profileai/internal/providers/openai"
	"profileai/internal/runlog"
)

var jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0}

const validStyle = `{"main_message":"차분한 분위기","keywords":["미니멀"],"profile_traits":{"mood":"차분함","fashion_style":"캐주얼","color_tone":"뉴트럴","expression_pose":"자연스러움","background_setting":"실내"},"behavior_suggestions":["밝은 조명"]}`

type fakeAnalyzer struct {
	calls      int
	summary    string
	aspiration int
	result     normalize.Result
	lab        analysis.LabResult
	err        error
}

func (f *fakeAnalyzer) AnalyzeStyle(ctx context.Context, images []domain.UploadedImage) (normalize.Result, error) {
	f.calls++
	f.aspiration = len(images)
	return f.result, f.err
}

func (f *fakeAnalyzer) CompareProfile(ctx context.Context, profile domain.UploadedImage, summary string) (normalize.Result, error) {
	f.calls++
	f.summary = summary
	return f.result, f.err
}

func (f *fakeAnalyzer) CompareWithImages(ctx context.Context, profile domain.UploadedImage, aspiration []domain.UploadedImage) (normalize.Result, error) {
	f.calls++
	f.aspiration = len(aspiration)
	return f.result, f.err
}

func (f *fakeAnalyzer) RunLab(ctx context.Context, text string, images []domain.UploadedImage) (analysis.LabResult, error) {
	f.calls++
	f.summary = text
	f.aspiration = len(images)
	return f.lab, f.err
}

type fakeEditor struct {
	note   string
	source language.Tag
	url    string
	err    error
}

func (f *fakeEditor) Edit(ctx context.Context, image domain.UploadedImage, note string, source language.Tag) (editor.Result, error) {
	f.note = note
	f.source = source
	return editor.Result{URL: f.url}, f.err
}

type fakeBackgrounds struct {
	summary    string
	comparison normalize.Result
	out        []domain.Background
	err        error
}

func (f *fakeBackgrounds) Generate(ctx context.Context, summary string, comparison normalize.Result) ([]domain.Background, error) {
	f.summary = summary
	f.comparison = comparison
	return f.out, f.err
}

type fakeRuns struct {
	limit int
	items []runlog.Run
	err   error
}

func (f *fakeRuns) Recent(ctx context.Context, limit int) ([]runlog.Run, error) {
	f.limit = limit
	return f.items, f.err
}

type part struct {
	field string
	data  []byte
}

func multipartRequest(t *testing.T, path string, files []part, values map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for i, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="f%d.jpg"`, f.field, i))
		h.Set("Content-Type", "image/jpeg")
		w, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = w.Write(f.data)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func images(field string, n int) []part {
	out := make([]part, n)
	for i := range out {
		out[i] = part{field: field, data: jpegBytes}
	}
	return out
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func newTestApp(deps Deps) *App {
	if deps.MaxUploadBytes == 0 {
		deps.MaxUploadBytes = 1 << 20
	}
	return NewApp(deps)
}

func TestAnalyzeAspirationReturnsReport(t *testing.T) {
	an := &fakeAnalyzer{result: normalize.Normalize(validStyle, normalize.Style)}
	app := newTestApp(Deps{Analyzer: an})

	rec := httptest.NewRecorder()
	app.AnalyzeAspiration(rec, multipartRequest(t, "/analyze-aspiration", images("images", 2), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Result-Fallback"); got != "false" {
		t.Fatalf("fallback header = %q", got)
	}
	if an.aspiration != 2 {
		t.Fatalf("analyzer saw %d images, want 2", an.aspiration)
	}
	if rec.Body.String() != validStyle+"\n" {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestAnalyzeAspirationFlagsFallback(t *testing.T) {
	an := &fakeAnalyzer{result: normalize.Normalize("죄송합니다", normalize.Style)}
	app := newTestApp(Deps{Analyzer: an})

	rec := httptest.NewRecorder()
	app.AnalyzeAspiration(rec, multipartRequest(t, "/analyze-aspiration", images("image", 1), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Result-Fallback"); got != "true" {
		t.Fatalf("fallback header = %q", got)
	}
	body := decodeBody(t, rec)
	if body["raw"] != "죄송합니다" {
		t.Fatalf("raw = %v", body["raw"])
	}
	if msg, _ := body["main_message"].(string); msg == "" {
		t.Fatalf("fallback report needs a main_message, got %v", body)
	}
	if traits, _ := body["profile_traits"].(map[string]any); len(traits) != len(normalize.TraitKeys) {
		t.Fatalf("profile_traits = %v", body["profile_traits"])
	}
}

func TestAnalyzeAspirationRejectsBadUploadsWithoutInference(t *testing.T) {
	cases := []struct {
		name  string
		files []part
	}{
		{"none", nil},
		{"too many", images("images", 4)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			an := &fakeAnalyzer{}
			app := newTestApp(Deps{Analyzer: an})
			rec := httptest.NewRecorder()
			app.AnalyzeAspiration(rec, multipartRequest(t, "/analyze-aspiration", tc.files, nil))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if an.calls != 0 {
				t.Fatalf("analyzer called %d times", an.calls)
			}
			if body := decodeBody(t, rec); body["details"] == "" {
				t.Fatalf("expected details in %v", body)
			}
		})
	}
}

func TestAnalyzeAspirationMapsInferenceErrors(t *testing.T) {
	cases := []struct {
		kind openai.ErrorKind
		want string
	}{
		{openai.KindInvalidCredential, msgInvalidCredential},
		{openai.KindQuotaExceeded, msgQuotaExceeded},
		{openai.KindUpstreamFault, msgUpstreamFault},
		{openai.KindTransport, msgAnalysisFailed},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			an := &fakeAnalyzer{err: fmt.Errorf("analysis: %w", &openai.InferenceError{Kind: tc.kind, Message: "boom"})}
			app := newTestApp(Deps{Analyzer: an})
			rec := httptest.NewRecorder()
			app.AnalyzeAspiration(rec, multipartRequest(t, "/analyze-aspiration", images("image", 1), nil))
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["error"] != tc.want || body["type"] != string(tc.kind) {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestAnalyzeProfileSources(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		an := &fakeAnalyzer{result: normalize.Comparison.Fallback("x")}
		app := newTestApp(Deps{Analyzer: an})
		rec := httptest.NewRecorder()
		req := multipartRequest(t, "/analyze-profile", images("profile", 1), map[string]string{"aspiration_report": validStyle})
		app.AnalyzeProfile(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(an.summary, "차분한 분위기") {
			t.Fatalf("summary = %q", an.summary)
		}
		if rec.Header().Get("X-Result-Fallback") != "true" {
			t.Fatal("fallback header not set")
		}
	})

	t.Run("summary", func(t *testing.T) {
		an := &fakeAnalyzer{}
		app := newTestApp(Deps{Analyzer: an})
		rec := httptest.NewRecorder()
		req := multipartRequest(t, "/analyze-profile", images("profile", 1), map[string]string{"aspiration_summary": "따뜻한 분위기"})
		app.AnalyzeProfile(rec, req)
		if rec.Code != http.StatusOK || an.summary != "따뜻한 분위기" {
			t.Fatalf("status = %d summary = %q", rec.Code, an.summary)
		}
	})

	t.Run("images", func(t *testing.T) {
		an := &fakeAnalyzer{}
		app := newTestApp(Deps{Analyzer: an})
		rec := httptest.NewRecorder()
		files := append(images("profile", 1), images("aspiration", 2)...)
		app.AnalyzeProfile(rec, multipartRequest(t, "/analyze-profile", files, nil))
		if rec.Code != http.StatusOK || an.aspiration != 2 {
			t.Fatalf("status = %d aspiration = %d", rec.Code, an.aspiration)
		}
	})

	t.Run("missing aspiration", func(t *testing.T) {
		an := &fakeAnalyzer{}
		app := newTestApp(Deps{Analyzer: an})
		rec := httptest.NewRecorder()
		app.AnalyzeProfile(rec, multipartRequest(t, "/analyze-profile", images("profile", 1), nil))
		if rec.Code != http.StatusBadRequest || an.calls != 0 {
			t.Fatalf("status = %d calls = %d", rec.Code, an.calls)
		}
	})

	t.Run("malformed report", func(t *testing.T) {
		an := &fakeAnalyzer{}
		app := newTestApp(Deps{Analyzer: an})
		rec := httptest.NewRecorder()
		req := multipartRequest(t, "/analyze-profile", images("profile", 1), map[string]string{"aspiration_report": "not json"})
		app.AnalyzeProfile(rec, req)
		if rec.Code != http.StatusBadRequest || an.calls != 0 {
			t.Fatalf("status = %d calls = %d", rec.Code, an.calls)
		}
	})

	t.Run("two profiles", func(t *testing.T) {
		an := &fakeAnalyzer{}
		app := newTestApp(Deps{Analyzer: an})
		rec := httptest.NewRecorder()
		req := multipartRequest(t, "/analyze-profile", images("profile", 2), map[string]string{"aspiration_summary": "x"})
		app.AnalyzeProfile(rec, req)
		if rec.Code != http.StatusBadRequest || an.calls != 0 {
			t.Fatalf("status = %d calls = %d", rec.Code, an.calls)
		}
	})
}

func TestEditImage(t *testing.T) {
	ed := &fakeEditor{url: "https://cdn.example/edited.png"}
	app := newTestApp(Deps{Editor: ed})
	rec := httptest.NewRecorder()
	req := multipartRequest(t, "/edit-image", images("image", 1), map[string]string{
		"improvements":      `["조명을 밝게","미소를 지으세요"]`,
		"improvement_index": "1",
	})
	app.EditImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["editedImageUrl"] != "https://cdn.example/edited.png" {
		t.Fatalf("body = %v", body)
	}
	if ed.note != "미소를 지으세요" {
		t.Fatalf("note = %q", ed.note)
	}
}

func TestEditImageFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"timeout", fmt.Errorf("editor: %w", domain.ErrEditTimeout), http.StatusGatewayTimeout, msgEditTimeout},
		{"terminal", &editor.FailureError{Status: "Error", Payload: json.RawMessage(`{"status":"Error"}`)}, http.StatusInternalServerError, msgEditFailed},
		{"submission", fmt.Errorf("%w: %w", domain.ErrEditSubmission, errors.New("402")), http.StatusInternalServerError, msgEditFailed},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, msgEditFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(Deps{Editor: &fakeEditor{err: tc.err}})
			rec := httptest.NewRecorder()
			app.EditImage(rec, multipartRequest(t, "/edit-image", images("image", 1), nil))
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if body := decodeBody(t, rec); body["error"] != tc.msg {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestEditImageTerminalFailureCarriesPayload(t *testing.T) {
	payload := `{"status":"Content Moderated"}`
	app := newTestApp(Deps{Editor: &fakeEditor{err: &editor.FailureError{Status: "Content Moderated", Payload: json.RawMessage(payload)}}})
	rec := httptest.NewRecorder()
	app.EditImage(rec, multipartRequest(t, "/edit-image", images("image", 1), nil))
	if body := decodeBody(t, rec); body["details"] != payload {
		t.Fatalf("details = %v", body["details"])
	}
}

func TestEditImageSubmissionPayloadInDetails(t *testing.T) {
	payload := `{"detail":"Insufficient credits"}`
	app := newTestApp(Deps{Editor: &fakeEditor{err: &editor.SubmissionError{Payload: json.RawMessage(payload)}}})
	rec := httptest.NewRecorder()
	app.EditImage(rec, multipartRequest(t, "/edit-image", images("image", 1), nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["details"] != payload || body["error"] != msgEditFailed {
		t.Fatalf("body = %v", body)
	}
}

func TestGenerateBackgrounds(t *testing.T) {
	bg := &fakeBackgrounds{out: []domain.Background{{URL: "u1", Type: "natural", Label: "Natural Background"}}}
	app := newTestApp(Deps{Backgrounds: bg})
	rec := httptest.NewRecorder()
	req := multipartRequest(t, "/generate-backgrounds", nil, map[string]string{
		"aspiration_summary": "따뜻한 카페",
		"profile_analysis":   `{"distance_to_chugumi":20,"improvement_suggestions":["미소"]}`,
	})
	app.GenerateBackgrounds(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("body = %v", body)
	}
	if got := bg.comparison.Strings("improvement_suggestions"); len(got) != 1 || got[0] != "미소" {
		t.Fatalf("comparison = %+v", bg.comparison)
	}
}

func TestGenerateBackgroundsAllFailed(t *testing.T) {
	bg := &fakeBackgrounds{err: fmt.Errorf("%w: %w", domain.ErrNoBackgrounds, errors.New("upstream"))}
	app := newTestApp(Deps{Backgrounds: bg})
	rec := httptest.NewRecorder()
	app.GenerateBackgrounds(rec, multipartRequest(t, "/generate-backgrounds", nil, map[string]string{"aspiration_summary": "x"}))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != `{"success":false,"backgrounds":[]}`+"\n" {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestGenerateBackgroundsRejectsBadInput(t *testing.T) {
	cases := map[string]map[string]string{
		"missing summary":   {"profile_analysis": `{}`},
		"analysis is array": {"aspiration_summary": "x", "profile_analysis": `[1]`},
		"analysis is text":  {"aspiration_summary": "x", "profile_analysis": `hello`},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			bg := &fakeBackgrounds{}
			app := newTestApp(Deps{Backgrounds: bg})
			rec := httptest.NewRecorder()
			app.GenerateBackgrounds(rec, multipartRequest(t, "/generate-backgrounds", nil, values))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if bg.summary != "" {
				t.Fatal("generator should not run")
			}
		})
	}
}

func TestTestPrompt(t *testing.T) {
	an := &fakeAnalyzer{lab: analysis.LabResult{Text: "hello", RunID: "run-1"}}
	app := newTestApp(Deps{Analyzer: an})
	rec := httptest.NewRecorder()
	app.TestPrompt(rec, multipartRequest(t, "/test-prompt", images("images", 2), map[string]string{"prompt": "describe"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["text"] != "hello" || body["runId"] != "run-1" {
		t.Fatalf("body = %v", body)
	}
	if an.summary != "describe" || an.aspiration != 2 {
		t.Fatalf("analyzer saw %q with %d images", an.summary, an.aspiration)
	}
}

func TestListRuns(t *testing.T) {
	runs := &fakeRuns{items: []runlog.Run{{ID: "r1", UseCase: "style", CreatedAt: time.Unix(0, 0).UTC()}}}
	app := newTestApp(Deps{Runs: runs})
	rec := httptest.NewRecorder()
	app.ListRuns(rec, httptest.NewRequest(http.MethodGet, "/admin/runs?limit=500", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if runs.limit != runlog.MaxLimit {
		t.Fatalf("limit = %d", runs.limit)
	}
	items, _ := decodeBody(t, rec)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %v", items)
	}
}

func TestListRunsWithoutStore(t *testing.T) {
	app := newTestApp(Deps{})
	rec := httptest.NewRecorder()
	app.ListRuns(rec, httptest.NewRequest(http.MethodGet, "/admin/runs", nil))
	if rec.Body.String() != `{"items":[]}`+"\n" {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRootAndHealth(t *testing.T) {
	app := newTestApp(Deps{})
	rec := httptest.NewRecorder()
	app.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != "Backend server is running!" {
		t.Fatalf("root body = %q", rec.Body.String())
	}
	rec = httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestSPA(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}
	app := newTestApp(Deps{StaticDir: dir})

	cases := []struct {
		path   string
		status int
		want   string
	}{
		{"/app.js", http.StatusOK, "console.log(1)"},
		{"/lab", http.StatusOK, "<html>app</html>"},
		{"/../../etc/passwd", http.StatusOK, "<html>app</html>"},
		{"/api/unknown", http.StatusNotFound, "not found"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		app.SPA(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.status || !strings.Contains(rec.Body.String(), tc.want) {
			t.Fatalf("%s: status = %d body = %q", tc.path, rec.Code, rec.Body.String())
		}
	}
}
