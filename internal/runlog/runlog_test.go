package runlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"profileai/internal/domain"
	"profileai/internal/sqlinline"
)

type memoryStore struct {
	mu   sync.Mutex
	runs []Run
	err  error
}

func (m *memoryStore) Record(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}

func (m *memoryStore) Recent(_ context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) < limit {
		limit = len(m.runs)
	}
	return m.runs[:limit], nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestThumbnail(t *testing.T) {
	p := Thumbnail(domain.UploadedImage{MIMEType: "image/png", Data: pngBytes(t, 400, 200)})
	if p.MIMEType != "image/png" {
		t.Fatalf("MIMEType = %q", p.MIMEType)
	}
	if !strings.HasPrefix(p.Preview, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected preview prefix: %.40s", p.Preview)
	}
}

func TestThumbnailUndecodable(t *testing.T) {
	p := Thumbnail(domain.UploadedImage{MIMEType: "image/heic", Data: []byte("not an image")})
	if p.MIMEType != "image/heic" || p.Preview != "" {
		t.Fatalf("unexpected preview: %+v", p)
	}
}

func TestRecorderWritesAsync(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, nil)
	id := rec.Record(Entry{
		UseCase:    "prompt_lab",
		Prompt:     "describe",
		ResultText: "a photo",
		Images:     []domain.UploadedImage{{MIMEType: "image/png", Data: pngBytes(t, 10, 10)}},
		Err:        errors.New("partial"),
	})
	rec.Wait()
	if len(store.runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(store.runs))
	}
	run := store.runs[0]
	if run.ID != id || run.UseCase != "prompt_lab" || run.Error != "partial" || len(run.Images) != 1 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.CreatedAt.IsZero() {
		t.Fatal("CreatedAt must be set")
	}
}

func TestRecorderSurvivesStoreError(t *testing.T) {
	store := &memoryStore{err: errors.New("db down")}
	rec := NewRecorder(store, nil)
	rec.Record(Entry{UseCase: "style"})
	rec.Wait()
	if len(store.runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(store.runs))
	}
}

func TestRecorderDropsEntriesAfterWait(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, nil)
	rec.Record(Entry{UseCase: "style"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Record(Entry{UseCase: "comparison"})
		}()
	}
	rec.Wait()
	written := len(store.runs)
	wg.Wait()

	if id := rec.Record(Entry{UseCase: "prompt_lab"}); id == "" {
		t.Fatal("expected run id after close")
	}
	rec.Wait()
	if written < 1 || len(store.runs) != written {
		t.Fatalf("runs = %d after close, %d at close", len(store.runs), written)
	}
}

func TestNopStoreRecorder(t *testing.T) {
	rec := NewRecorder(nil, nil)
	if id := rec.Record(Entry{UseCase: "style"}); id == "" {
		t.Fatal("expected run id")
	}
	rec.Wait()
	runs, err := rec.Recent(context.Background(), 5)
	if err != nil || len(runs) != 0 {
		t.Fatalf("Recent = %v, %v", runs, err)
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-1: DefaultLimit, 0: DefaultLimit, 5: 5, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

type captureExec struct {
	query string
	args  []any
	rows  pgx.Rows
}

func (c *captureExec) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	c.query = query
	c.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (c *captureExec) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if c.rows == nil {
		return nil, errors.New("not implemented")
	}
	c.query = query
	c.args = args
	return c.rows, nil
}

// staticRows serves fixed rows in column order of the recent runs query.
type staticRows struct {
	pgx.Rows
	data   [][]any
	next   int
	closed bool
}

func (r *staticRows) Next() bool {
	if r.next >= len(r.data) {
		return false
	}
	r.next++
	return true
}

func (r *staticRows) Scan(dest ...any) error {
	row := r.data[r.next-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d targets for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *bool:
			*p = row[i].(bool)
		case *[]byte:
			*p = row[i].([]byte)
		case *time.Time:
			*p = row[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported target %T", d)
		}
	}
	return nil
}

func (r *staticRows) Err() error { return nil }

func (r *staticRows) Close() { r.closed = true }

func TestPostgresStoreRecord(t *testing.T) {
	exec := &captureExec{}
	store := NewPostgresStore(exec)
	run := Run{ID: "0b6a3c1e-7f0d-4d6b-9a53-1f2e3d4c5b6a", UseCase: "style", Prompt: "p", ResultText: "r", Fallback: true}
	if err := store.Record(context.Background(), run); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if exec.query != sqlinline.QInsertInferenceRun {
		t.Fatal("Record must use the insert query")
	}
	if len(exec.args) != 8 || exec.args[0] != run.ID || exec.args[4] != true {
		t.Fatalf("unexpected args: %v", exec.args)
	}
	var images []Preview
	if err := json.Unmarshal(exec.args[5].([]byte), &images); err != nil || images == nil {
		t.Fatalf("images arg must be a JSON array, got %s (%v)", exec.args[5], err)
	}
}

func TestPostgresStoreRecentError(t *testing.T) {
	store := NewPostgresStore(&captureExec{})
	if _, err := store.Recent(context.Background(), 5); err == nil {
		t.Fatal("expected error from failing query")
	}
}

func TestPostgresStoreRecent(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := &staticRows{data: [][]any{
		{"run-2", "comparison", "p2", "r2", false, []byte(`[{"mimetype":"image/jpeg","preview":"data:image/jpeg;base64,AA"}]`), "", created},
		{"run-1", "style", "p1", "", true, []byte(nil), "gateway down", created.Add(-time.Minute)},
	}}
	exec := &captureExec{rows: rows}
	runs, err := NewPostgresStore(exec).Recent(context.Background(), MaxLimit+50)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if exec.query != sqlinline.QListRecentInferenceRuns || len(exec.args) != 1 || exec.args[0] != MaxLimit {
		t.Fatalf("unexpected query args: %v", exec.args)
	}
	if !rows.closed {
		t.Fatal("rows must be closed")
	}
	if len(runs) != 2 || runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if len(runs[0].Images) != 1 || runs[0].Images[0].MIMEType != "image/jpeg" || !runs[0].CreatedAt.Equal(created) {
		t.Fatalf("first run not decoded: %+v", runs[0])
	}
	if !runs[1].Fallback || runs[1].Error != "gateway down" || runs[1].Images != nil {
		t.Fatalf("second run not decoded: %+v", runs[1])
	}
}

// listRedis is an in-memory list behind the few commands the store sends.
type listRedis struct {
	redis.Cmdable
	items []string
}

func (l *listRedis) TxPipeline() redis.Pipeliner {
	return &listPipe{list: l}
}

func (l *listRedis) LRange(ctx context.Context, _ string, start, stop int64) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	end := int(stop) + 1
	if end > len(l.items) {
		end = len(l.items)
	}
	if int(start) >= end {
		cmd.SetVal([]string{})
		return cmd
	}
	cmd.SetVal(append([]string(nil), l.items[start:end]...))
	return cmd
}

type listPipe struct {
	redis.Pipeliner
	list *listRedis
	ops  []func()
}

func (p *listPipe) LPush(ctx context.Context, _ string, values ...interface{}) *redis.IntCmd {
	p.ops = append(p.ops, func() {
		for _, v := range values {
			p.list.items = append([]string{string(v.([]byte))}, p.list.items...)
		}
	})
	return redis.NewIntCmd(ctx)
}

func (p *listPipe) LTrim(ctx context.Context, _ string, start, stop int64) *redis.StatusCmd {
	p.ops = append(p.ops, func() {
		if end := int(stop) + 1; end < len(p.list.items) {
			p.list.items = p.list.items[start:end]
		}
	})
	return redis.NewStatusCmd(ctx)
}

func (p *listPipe) Exec(context.Context) ([]redis.Cmder, error) {
	for _, op := range p.ops {
		op()
	}
	p.ops = nil
	return nil, nil
}

func TestRedisStoreKeepsNewestRuns(t *testing.T) {
	client := &listRedis{}
	store := NewRedisStore(client, "")
	store.max = 3
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		run := Run{ID: fmt.Sprintf("run-%d", i), UseCase: "style", Images: []Preview{{MIMEType: "image/png", Preview: "p"}}}
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}
	if len(client.items) != 3 {
		t.Fatalf("list holds %d items, want 3", len(client.items))
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	var ids []string
	for _, run := range runs {
		ids = append(ids, run.ID)
	}
	if strings.Join(ids, ",") != "run-5,run-4,run-3" {
		t.Fatalf("ids = %v", ids)
	}
	if len(runs[0].Images) != 1 || runs[0].Images[0].MIMEType != "image/png" {
		t.Fatalf("images not decoded: %+v", runs[0])
	}

	runs, err = store.Recent(ctx, 1)
	if err != nil || len(runs) != 1 || runs[0].ID != "run-5" {
		t.Fatalf("limited read = %+v (%v)", runs, err)
	}
}

func TestRedisStoreSkipsUndecodableEntries(t *testing.T) {
	client := &listRedis{items: []string{`{"id":"ok"}`, "not json"}}
	runs, err := NewRedisStore(client, "runs").Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "ok" {
		t.Fatalf("runs = %+v", runs)
	}
}
