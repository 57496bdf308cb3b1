package hdlr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/husmen/anomalib/pkg/config"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fs := afero.NewMemMapFs()
	root := "datasets/MVTec"
	for _, path := range []string{
		"bottle/train/good/000.png",
		"bottle/train/good/001.png",
		"bottle/test/good/000.png",
		"bottle/test/crack/000.png",
	} {
		if err := afero.WriteFile(fs, filepath.Join(root, path), []byte{0}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	conf := &config.Config{}
	conf.Dataset.Path = root
	conf.ApplyDefaults()

	mgr := NewMgr(fs, conf)
	engine := gin.New()
	engine.GET("/v1/categories", mgr.ListCategories)
	engine.GET("/v1/categories/:category/samples", mgr.ListSamples)
	engine.GET("/v1/categories/:category/stats", mgr.GetStats)
	return engine
}

func get(t *testing.T, engine *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestListCategories(t *testing.T) {
	w := get(t, newTestRouter(t), "/v1/categories")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var categories []string
	if err := json.Unmarshal(w.Body.Bytes(), &categories); err != nil {
		t.Fatal(err)
	}
	if len(categories) != 1 || categories[0] != "bottle" {
		t.Errorf("categories = %v, want [bottle]", categories)
	}
}

func TestListSamples(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantCode int
		wantRows int
	}{
		{"train", "/v1/categories/bottle/samples?split=train", http.StatusOK, 2},
		{"test", "/v1/categories/bottle/samples?split=test", http.StatusOK, 2},
		{"bad split", "/v1/categories/bottle/samples?split=val", http.StatusBadRequest, 0},
		{"missing category", "/v1/categories/cable/samples", http.StatusNotFound, 0},
	}
	engine := newTestRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, engine, tt.url)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var rows []json.RawMessage
			if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
				t.Fatal(err)
			}
			if len(rows) != tt.wantRows {
				t.Errorf("got %d rows, want %d", len(rows), tt.wantRows)
			}
		})
	}
}

func TestGetStats(t *testing.T) {
	w := get(t, newTestRouter(t), "/v1/categories/bottle/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var stats struct {
		Category  string `json:"category"`
		Train     int    `json:"train"`
		Test      int    `json:"test"`
		Normal    int    `json:"normal"`
		Anomalous int    `json:"anomalous"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	want := "{bottle 2 2 3 1}"
	got := fmt.Sprintf("{%s %d %d %d %d}", stats.Category, stats.Train, stats.Test, stats.Normal, stats.Anomalous)
	if got != want {
		t.Errorf("stats = %s, want %s", got, want)
	}
}
