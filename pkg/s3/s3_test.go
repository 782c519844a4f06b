package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"video-portal/cmd/config"
)

// ---------------------------------------------------------------------------
// Fake S3 endpoint
// ---------------------------------------------------------------------------

type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
	failDel bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		buckets: map[string]bool{},
		objects: map[string][]byte{},
		types:   map[string]string{},
	}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case key == "" && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodPut:
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[bucket+"/"+key] = body
		f.types[bucket+"/"+key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		if f.failDel {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
			return
		}
		delete(f.objects, bucket+"/"+key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeS3, *httptest.Server) {
	t.Helper()
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(config.Storage{
		Bucket:    "videos",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fake, srv
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestEnsureContainerCreatesOnce(t *testing.T) {
	c, fake, _ := newTestClient(t)
	ctx := context.Background()

	c.EnsureContainer(ctx)
	if !fake.buckets["videos"] {
		t.Fatal("bucket was not created")
	}
	// second call sees the bucket and is a no-op
	c.EnsureContainer(ctx)
}

func TestEnsureContainerSwallowsFailure(t *testing.T) {
	c, err := New(config.Storage{
		Bucket:    "videos",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:1",
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.EnsureContainer(ctx) // must return without panicking
}

func TestStoreAndDelete(t *testing.T) {
	c, fake, srv := newTestClient(t)
	ctx := context.Background()
	c.EnsureContainer(ctx)

	name := "1700000000000-clip.mp4"
	loc, err := c.Store(ctx, name, bytes.NewReader([]byte("frames")), "video/mp4")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(loc, srv.URL) || !strings.HasSuffix(loc, "/videos/"+name) {
		t.Errorf("Location = %q, want %s/videos/%s", loc, srv.URL, name)
	}
	if got := string(fake.objects["videos/"+name]); got != "frames" {
		t.Errorf("stored body = %q, want frames", got)
	}
	if got := fake.types["videos/"+name]; got != "video/mp4" {
		t.Errorf("content type = %q, want video/mp4", got)
	}

	derived, err := NameFromURL(loc)
	if err != nil {
		t.Fatalf("NameFromURL: %v", err)
	}
	if derived != name {
		t.Errorf("NameFromURL = %q, want %q", derived, name)
	}

	if err := c.DeleteIfExists(ctx, name); err != nil {
		t.Fatalf("DeleteIfExists: %v", err)
	}
	if _, ok := fake.objects["videos/"+name]; ok {
		t.Error("object still present after delete")
	}
	if err := c.DeleteIfExists(ctx, name); err != nil {
		t.Errorf("DeleteIfExists on missing object: %v", err)
	}
}

func TestDeleteIfExistsReportsFailure(t *testing.T) {
	c, fake, _ := newTestClient(t)
	fake.failDel = true
	if err := c.DeleteIfExists(context.Background(), "x.mp4"); err == nil {
		t.Fatal("DeleteIfExists succeeded on access denied")
	}
}

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	tests := []struct {
		in, want string
	}{
		{"clip.mp4", "1700000000123-clip.mp4"},
		{"my holiday video.mp4", "1700000000123-myholidayvideo.mp4"},
		{" \tspaced\n.mov ", "1700000000123-spaced.mov"},
		{`C:\Users\me\clip.mp4`, "1700000000123-clip.mp4"},
		{"", "1700000000123-video"},
	}
	for _, tt := range tests {
		if got := ObjectName(tt.in, now); got != tt.want {
			t.Errorf("ObjectName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNameFromURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://videos.s3.us-east-1.amazonaws.com/1700-clip.mp4", "1700-clip.mp4", false},
		{"http://localhost:9000/videos/1700-my%20clip.mp4", "1700-my clip.mp4", false},
		{"https://example.test/", "", true},
	}
	for _, tt := range tests {
		got, err := NameFromURL(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NameFromURL(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NameFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
