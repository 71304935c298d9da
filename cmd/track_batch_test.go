package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadBatchFile(t *testing.T) {
	path := writeBatchFile(t, `# gift ideas
https://shop.example.com/item/1

https://shop.example.com/item/2
  # indented comments are skipped too
`)
	urls, err := readBatchFile(path)
	if err != nil {
		t.Fatalf("readBatchFile: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d: %v", len(urls), urls)
	}
	if urls[0] != "https://shop.example.com/item/1" {
		t.Fatalf("unexpected first url: %s", urls[0])
	}
}

func TestReadBatchFileRejectsNonHTTP(t *testing.T) {
	path := writeBatchFile(t, `https://shop.example.com/item/1
ftp://shop.example.com/item/2
`)
	_, err := readBatchFile(path)
	if err == nil {
		t.Fatal("expected error for non-http url")
	}
	assertContains(t, err.Error(), "line 2")
}

func TestReadBatchFileEmpty(t *testing.T) {
	path := writeBatchFile(t, "# nothing but comments\n\n")
	if _, err := readBatchFile(path); err == nil {
		t.Fatal("expected error for empty batch file")
	}
}

func TestReadBatchFileMissing(t *testing.T) {
	if _, err := readBatchFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTrackBatch(t *testing.T) {
	socketPath := useFakeSocket(t)
	srv := startFakeServer(t, socketPath)
	defer srv.close()

	path := writeBatchFile(t, `https://shop.example.com/item/1
https://shop.example.com/item/2
`)
	client, err := trackcli.NewClient()
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := newContext(newTestApp(), nil, "track")
	stdout, _ := captureOutput(func() {
		if err := trackBatch(ctx, client, path, &trackcli.TrackOpts{}); err != nil {
			t.Errorf("trackBatch: %v", err)
		}
	})
	assertContains(t, stdout, "Tracked 2 of 2 products.")
}

func TestTrackBatchContinuesPastFailures(t *testing.T) {
	socketPath := useFakeSocket(t)
	srv := startFakeServer(t, socketPath, map[common.UpdateType]string{
		common.UPDATE_TRACK: "could not extract a price",
	})
	defer srv.close()

	path := writeBatchFile(t, `https://shop.example.com/item/1
https://shop.example.com/item/2
`)
	client, err := trackcli.NewClient()
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := newContext(newTestApp(), nil, "track")
	stdout, _ := captureOutput(func() {
		if err := trackBatch(ctx, client, path, &trackcli.TrackOpts{}); err != nil {
			t.Errorf("trackBatch: %v", err)
		}
	})
	assertContains(t, stdout, "Tracked 0 of 2 products.")
	assertContains(t, stdout, "could not extract a price")
}

func TestTrackBatchBadFile(t *testing.T) {
	socketPath := useFakeSocket(t)
	srv := startFakeServer(t, socketPath)
	defer srv.close()

	client, err := trackcli.NewClient()
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := newContext(newTestApp(), nil, "track")
	stdout, _ := captureOutput(func() {
		_ = trackBatch(ctx, client, filepath.Join(t.TempDir(), "missing.txt"), &trackcli.TrackOpts{})
	})
	assertErrorFormat(t, stdout, "track", "batch-file")
}
