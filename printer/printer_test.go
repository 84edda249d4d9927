package printer

import (
	"strings"
	"testing"
)

const (
	locA = "data:image/png;base64,cGFnZUE="
	locB = "data:image/png;base64,cGFnZUI="
)

func TestBuildDocument(t *testing.T) {
	doc, err := BuildDocument([]string{locA, locB})
	if err != nil {
		t.Fatalf("BuildDocument() failed: %v", err)
	}

	// One page per locator, in order.
	if got := strings.Count(doc, `<div class="page">`); got != 2 {
		t.Errorf("document has %d pages, want 2", got)
	}
	first := strings.Index(doc, locA)
	second := strings.Index(doc, locB)
	if first < 0 || second < 0 {
		t.Fatal("locators missing from document")
	}
	if first > second {
		t.Error("pages are out of order")
	}
}

func TestBuildDocument_DataURIsSurviveEscaping(t *testing.T) {
	doc, err := BuildDocument([]string{locA})
	if err != nil {
		t.Fatalf("BuildDocument() failed: %v", err)
	}

	if !strings.Contains(doc, `src="`+locA+`"`) {
		t.Error("data URI was mangled by template escaping")
	}
	if strings.Contains(doc, "ZgotmplZ") {
		t.Error("template sanitizer rejected the data URI")
	}
}

func TestBuildDocument_PrintLayout(t *testing.T) {
	doc, err := BuildDocument([]string{locA})
	if err != nil {
		t.Fatalf("BuildDocument() failed: %v", err)
	}

	for _, want := range []string{
		"@page { margin: 0; }",
		"page-break-after: always;",
		"border: none;",
		"box-shadow: none;",
		"window.print()",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestBuildDocument_NoPages(t *testing.T) {
	if _, err := BuildDocument(nil); err == nil {
		t.Error("BuildDocument() should fail with no pages")
	}
}

func TestBuildDocument_SinglePage(t *testing.T) {
	doc, err := BuildDocument([]string{locA})
	if err != nil {
		t.Fatalf("BuildDocument() failed: %v", err)
	}
	if got := strings.Count(doc, `<div class="page">`); got != 1 {
		t.Errorf("document has %d pages, want 1", got)
	}
}
