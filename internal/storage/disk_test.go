package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestDisk_PutGetDelete(t *testing.T) {
	store, err := NewDisk(t.TempDir(), "https://cdn.example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ctx := context.Background()
	body := strings.NewReader("<html>hello</html>")
	if err := store.Put(ctx, "deploy-1/home.html", "text/html", int64(body.Len()), body); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if !store.Exists(ctx, "deploy-1/home.html") {
		t.Fatal("expected object to exist after put")
	}

	rc, err := store.Get(ctx, "deploy-1/home.html")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "<html>hello</html>" {
		t.Fatalf("unexpected content: %q", data)
	}

	if got := store.URL("deploy-1/home.html"); got != "https://cdn.example.com/deploy-1/home.html" {
		t.Fatalf("unexpected URL: %q", got)
	}

	if err := store.Delete(ctx, "deploy-1/home.html"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if store.Exists(ctx, "deploy-1/home.html") {
		t.Fatal("expected object to be gone after delete")
	}

	// Deleting a missing key is not an error.
	if err := store.Delete(ctx, "deploy-1/home.html"); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
}

func TestDisk_RejectsTraversal(t *testing.T) {
	store, err := NewDisk(t.TempDir(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ctx := context.Background()
	for _, key := range []string{"../escape", "/abs/path", "."} {
		if err := store.Put(ctx, key, "", 0, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}
