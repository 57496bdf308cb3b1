package utils

import (
	"archive/tar"
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

func buildTarXz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for name, content := range files {
		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xw.Write(tarBuf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}
	return xzBuf.Bytes()
}

func TestExtractTarXz(t *testing.T) {
	fs := afero.NewMemMapFs()
	archive := buildTarXz(t, map[string]string{
		"bottle/train/good/000.png":              "image",
		"bottle/ground_truth/crack/000_mask.png": "mask",
	})
	if err := afero.WriteFile(fs, "data/archive.tar.xz", archive, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ExtractTarXz(fs, "data/archive.tar.xz", "data"); err != nil {
		t.Fatal(err)
	}

	for path, want := range map[string]string{
		"data/bottle/train/good/000.png":              "image",
		"data/bottle/ground_truth/crack/000_mask.png": "mask",
	} {
		got, err := afero.ReadFile(fs, filepath.FromSlash(path))
		if err != nil {
			t.Fatalf("extracted file %s: %v", path, err)
		}
		if string(got) != want {
			t.Errorf("extracted file %s = %q, want %q", path, got, want)
		}
	}
}

func TestExtractTarXzRejectsEscapingEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	archive := buildTarXz(t, map[string]string{"../escape.txt": "nope"})
	if err := afero.WriteFile(fs, "data/archive.tar.xz", archive, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ExtractTarXz(fs, "data/archive.tar.xz", "data"); err == nil {
		t.Fatal("archive entry escaping the destination was extracted")
	}
}
