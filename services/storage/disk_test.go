package storagesvc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pathwayhq/pathway/core"
)

func TestDiskStorage(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Storage.MediaDir = t.TempDir()
	conf.Storage.MediaURL = "http://localhost:8000/media"

	s, err := New(conf)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	key := core.UploadKey("u1", core.UploadTrade, "Receipt.PDF")
	if !strings.HasPrefix(key, "u1/trades/") || !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("UploadKey() = %q", key)
	}

	url, err := s.Save(ctx, key, strings.NewReader("content"), 7, "application/pdf")
	if err != nil {
		t.Fatal(err)
	}
	if want := "http://localhost:8000/media/" + key; url != want {
		t.Errorf("Save() url = %q, want %q", url, want)
	}
	data, err := os.ReadFile(filepath.Join(conf.Storage.MediaDir, filepath.FromSlash(key)))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content" {
		t.Errorf("saved content = %q", data)
	}

	if err = s.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if err = s.Delete(ctx, key); err != nil {
		t.Errorf("deleting twice: %v", err)
	}

	if _, err = s.Save(ctx, "../escape.txt", strings.NewReader("x"), 1, ""); err == nil {
		t.Error("Save() outside the media dir returned no error")
	}
}

func TestNew_unknownDriver(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Storage.Driver = "s3"
	if _, err := New(conf); err == nil {
		t.Error("New() with an unknown driver returned no error")
	}
}
