package services

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtractMainContentPrefersArticle(t *testing.T) {
	article := strings.Repeat("Cells divide through a process called mitosis. ", 5)
	html := `<html><body>
		<nav>Home About Contact</nav>
		<article>` + article + `</article>
		<footer>Copyright</footer>
	</body></html>`

	content := ExtractMainContent(parseHTML(t, html).Selection)

	if !strings.Contains(content, "mitosis") {
		t.Errorf("article content missing: %q", content)
	}
	if strings.Contains(content, "Home About Contact") || strings.Contains(content, "Copyright") {
		t.Error("navigation and footer must be stripped")
	}
}

func TestExtractMainContentStripsScripts(t *testing.T) {
	body := strings.Repeat("Photosynthesis converts light into chemical energy. ", 5)
	html := `<html><body>
		<script>var tracking = true;</script>
		<style>.x { color: red }</style>
		<main>` + body + `</main>
	</body></html>`

	content := ExtractMainContent(parseHTML(t, html).Selection)

	if strings.Contains(content, "tracking") || strings.Contains(content, "color: red") {
		t.Error("script/style content leaked into extraction")
	}
	if !strings.Contains(content, "Photosynthesis") {
		t.Error("main content missing")
	}
}

func TestExtractMainContentFallsBackToBody(t *testing.T) {
	html := `<html><body><p>Short note.</p></body></html>`

	content := ExtractMainContent(parseHTML(t, html).Selection)

	if !strings.Contains(content, "Short note.") {
		t.Errorf("body fallback failed: %q", content)
	}
}
