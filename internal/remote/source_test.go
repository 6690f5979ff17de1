package remote

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewFileSource(t *testing.T) {
	path := writeTemp(t, "clip.mp4", "not really video")

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}

	if src.Name() != "clip.mp4" {
		t.Errorf("name: got %q", src.Name())
	}
	if src.Size() != int64(len("not really video")) {
		t.Errorf("size: got %d", src.Size())
	}
	if !strings.HasPrefix(src.ContentType(), "video/mp4") {
		t.Errorf("content type: got %q", src.ContentType())
	}

	rc, err := src.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "not really video" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestNewFileSourceSniffsWithoutExtension(t *testing.T) {
	path := writeTemp(t, "capture", "\x89PNG\r\n\x1a\nrest")

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	if src.ContentType() != "image/png" {
		t.Errorf("content type: got %q, want sniffed image/png", src.ContentType())
	}
}

func TestNewFileSourceErrors(t *testing.T) {
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "missing.mov")); err == nil {
		t.Error("missing file must error")
	}
	if _, err := NewFileSource(t.TempDir()); err == nil {
		t.Error("directory must error")
	}
}

func TestProgressReader(t *testing.T) {
	var reports [][2]int64
	pr := NewProgressReader(strings.NewReader("0123456789"), 10, func(sent, total int64) {
		reports = append(reports, [2]int64{sent, total})
	})

	buf := make([]byte, 4)
	for {
		if _, err := pr.Read(buf); err == io.EOF {
			break
		} else if err != nil {
			t.Fatal(err)
		}
	}

	if len(reports) == 0 {
		t.Fatal("no progress reported")
	}
	last := reports[len(reports)-1]
	if last[0] != 10 || last[1] != 10 {
		t.Errorf("final report: %v", last)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i][0] < reports[i-1][0] {
			t.Errorf("progress regressed at %d: %v", i, reports)
		}
	}
}

func TestProgressReaderNilCallback(t *testing.T) {
	pr := NewProgressReader(strings.NewReader("abc"), 3, nil)
	if _, err := io.ReadAll(pr); err != nil {
		t.Fatal(err)
	}
}
