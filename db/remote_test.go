package db

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nickyhof/lildb/stmt"
)

// fakeS3 keeps objects in memory, keyed by bucket/key.
type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &EngineError{Op: "get", Err: os.ErrNotExist}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func withFakeS3(t *testing.T) *fakeS3 {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	orig := newS3Client
	newS3Client = func(context.Context, *remoteConfig) (s3API, error) { return fake, nil }
	t.Cleanup(func() { newS3Client = orig })
	return fake
}

func TestPushToLocalPath(t *testing.T) {
	engine := setupTestEngine(t, "")
	_, _ = engine.Exec("person", "insert", stmt.Stmt{
		Text: `INSERT INTO person (id, name) VALUES (1, 'Alice')`,
	})

	dst := filepath.Join(t.TempDir(), "backup.db")
	if err := engine.Push(context.Background(), dst); err != nil {
		t.Fatalf("Failed to push: %v", err)
	}

	restored, err := Connect(dst, nil, nil)
	if err != nil {
		t.Fatalf("Failed to open pushed copy: %v", err)
	}
	defer restored.Close()

	var name string
	if err := restored.QueryValue("person", "select", stmt.Stmt{Text: `SELECT name FROM person`}, &name); err != nil {
		t.Fatalf("Failed to read pushed copy: %v", err)
	}
	if name != "Alice" {
		t.Errorf("Expected Alice, got %q", name)
	}
}

func TestPushPullS3RoundTrip(t *testing.T) {
	fake := withFakeS3(t)

	engine := setupTestEngine(t, "")
	_, _ = engine.Exec("person", "insert", stmt.Stmt{
		Text: `INSERT INTO person (id, name) VALUES (1, 'Alice')`,
	})

	if err := engine.Push(context.Background(), "s3://bucket/backups/db"); err != nil {
		t.Fatalf("Failed to push: %v", err)
	}
	if len(fake.objects["bucket/backups/db"]) == 0 {
		t.Fatal("Expected object in fake S3")
	}

	local := filepath.Join(t.TempDir(), "restored.db")
	if err := Pull(context.Background(), "s3://bucket/backups/db", local); err != nil {
		t.Fatalf("Failed to pull: %v", err)
	}

	restored, err := Connect(local, nil, nil)
	if err != nil {
		t.Fatalf("Failed to open pulled copy: %v", err)
	}
	defer restored.Close()

	var count int
	if err := restored.QueryValue("person", "count", stmt.Stmt{Text: `SELECT COUNT(*) FROM person`}, &count); err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row, got %d", count)
	}
}

func TestPullHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "pulled")
	if err := Pull(context.Background(), srv.URL, local); err != nil {
		t.Fatalf("Failed to pull: %v", err)
	}
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("Failed to read pulled file: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Unexpected content %q", data)
	}
}

func TestPushHTTPRejected(t *testing.T) {
	engine := setupTestEngine(t, "")
	if err := engine.Push(context.Background(), "https://example.com/db"); err == nil {
		t.Fatal("Expected error for http push")
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://bucket/a/b/c")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if bucket != "bucket" || key != "a/b/c" {
		t.Errorf("Got %q %q", bucket, key)
	}

	if _, _, err := parseS3URL("s3://bucketonly"); err == nil {
		t.Error("Expected error for URL without key")
	}
}
