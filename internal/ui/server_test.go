package ui

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler("keybrame <overlay>").ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>keybrame &lt;overlay&gt;</title>") {
		t.Error("title not escaped into page")
	}
	for _, want := range []string{"'/ws'", "image_change", "transition", "1000"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestAdminHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	AdminHandler("keybrame").ServeHTTP(rec, httptest.NewRequest("GET", "/admin", nil))

	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>keybrame admin</title>") {
		t.Error("title missing")
	}
	for _, want := range []string{
		"'/api/keybindings'",
		"'/api/keybindings/reorder'",
		"'/api/images'",
		"'/api/settings'",
		"'/api/reload'",
		"'/api/server/restart'",
		"Authorization",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("admin page missing %q", want)
		}
	}
}
