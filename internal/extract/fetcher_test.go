package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <meta name="description" content="A page about foxes.">
  <script>var tracking = true;</script>
  <style>body { color: red; }</style>
</head>
<body>
  <nav>Home | About</nav>
  <h1>All About Foxes</h1>
  <p>The quick brown fox jumps.</p>
  <h2>Habitat</h2>
  <p>It runs fast!</p>
  <footer>Copyright</footer>
</body>
</html>`

func TestFetchContent_SanitizesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "seoscout-test")
	page, err := f.FetchContent(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, boilerplate := range []string{"tracking", "color: red", "Home | About", "Copyright"} {
		if strings.Contains(page.Text, boilerplate) {
			t.Errorf("boilerplate %q leaked into text: %q", boilerplate, page.Text)
		}
	}
	for _, body := range []string{"All About Foxes", "The quick brown fox jumps.", "It runs fast!"} {
		if !strings.Contains(page.Text, body) {
			t.Errorf("expected %q in text: %q", body, page.Text)
		}
	}

	if !page.Structure.HasH1 {
		t.Error("expected HasH1")
	}
	if !page.Structure.HasMetaDescription {
		t.Error("expected HasMetaDescription")
	}
	if !page.Structure.HasSubheadings {
		t.Error("expected HasSubheadings")
	}
}

func TestFetchContent_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "")
	_, err := f.FetchContent(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got %v", err)
	}
}

func TestFetchContent_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(50*time.Millisecond, "")
	_, err := f.FetchContent(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetchTimeout) {
		t.Errorf("expected ErrFetchTimeout, got %v", err)
	}
}

func TestFetchContent_Unreachable(t *testing.T) {
	f := NewHTTPFetcher(time.Second, "")
	_, err := f.FetchContent(context.Background(), "http://127.0.0.1:1")
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got %v", err)
	}
}

func TestParseDocument_MissingStructure(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><p>Just a bare paragraph here.</p></body></html>`))
	if err != nil {
		t.Fatalf("parsing document: %v", err)
	}

	page := ParseDocument(doc)
	if page.Structure.HasH1 || page.Structure.HasMetaDescription || page.Structure.HasSubheadings {
		t.Errorf("expected all structure flags false, got %+v", page.Structure)
	}
	if page.Text != "Just a bare paragraph here." {
		t.Errorf("unexpected text: %q", page.Text)
	}
}

func TestParseDocument_CollapsesWhitespace(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<html><body><p>spread \n\n  across\t lines</p></body></html>"))
	if err != nil {
		t.Fatalf("parsing document: %v", err)
	}

	page := ParseDocument(doc)
	if page.Text != "spread across lines" {
		t.Errorf("unexpected text: %q", page.Text)
	}
}
