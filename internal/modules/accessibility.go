package modules

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
)

// Accessibility checks alt text, form labels, document language, and
// heading structure.
type Accessibility struct{}

// NewAccessibility creates the accessibility module.
func NewAccessibility() *Accessibility {
	return &Accessibility{}
}

// Name returns the module name.
func (m *Accessibility) Name() string { return "accessibility" }

// Category returns the assessment category.
func (m *Accessibility) Category() string { return "accessibility" }

// Execute runs the accessibility checks.
func (m *Accessibility) Execute(ctx context.Context, sctx *pipeline.Context) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, page := range sctx.Pages {
		if !page.IsHTML() || !page.Succeeded() {
			continue
		}
		doc := parsePage(page)
		if doc == nil {
			continue
		}

		findings = append(findings, m.checkPage(doc, page.URL)...)
	}

	return findings, nil
}

// checkPage runs all checks against one parsed document.
func (m *Accessibility) checkPage(doc *html.Node, pageURL string) []model.Finding {
	findings := make([]model.Finding, 0)

	labeledInputs := collectLabeledInputs(doc)
	var headings []int
	missingAlt := 0

	walkElements(doc, func(n *html.Node) {
		switch n.Data {
		case "html":
			if lang, _ := attr(n, "lang"); strings.TrimSpace(lang) == "" {
				findings = append(findings, model.NewFinding(
					"missing_lang_attribute",
					"Document has no lang attribute",
					"<html> element lacks lang",
					pageURL,
				))
			}

		case "img":
			if _, ok := attr(n, "alt"); !ok {
				missingAlt++
			}

		case "input":
			t, _ := attr(n, "type")
			switch strings.ToLower(t) {
			case "hidden", "submit", "button", "image", "reset":
				return
			}
			if !inputIsLabeled(n, labeledInputs) {
				name, _ := attr(n, "name")
				findings = append(findings, model.NewFinding(
					"form_input_missing_label",
					"Form input has no label",
					fmt.Sprintf("input name=%q", name),
					pageURL,
				))
			}

		case "h1", "h2", "h3", "h4", "h5", "h6":
			level, _ := strconv.Atoi(n.Data[1:])
			headings = append(headings, level)
		}
	})

	if missingAlt > 0 {
		findings = append(findings, model.NewFinding(
			"image_missing_alt",
			"Images without alt text",
			fmt.Sprintf("%d image(s) lack an alt attribute", missingAlt),
			pageURL,
		))
	}

	if evidence := headingProblem(headings); evidence != "" {
		findings = append(findings, model.NewFinding(
			"heading_structure",
			"Heading structure is broken",
			evidence,
			pageURL,
		))
	}

	return findings
}

// collectLabeledInputs gathers the ids referenced by <label for=...>.
func collectLabeledInputs(doc *html.Node) map[string]bool {
	labeled := make(map[string]bool)
	walkElements(doc, func(n *html.Node) {
		if n.Data == "label" {
			if forID, _ := attr(n, "for"); forID != "" {
				labeled[forID] = true
			}
		}
	})
	return labeled
}

// inputIsLabeled reports whether an input is associated with a label,
// either via a label[for] reference, an enclosing label, or an aria-label.
func inputIsLabeled(n *html.Node, labeledIDs map[string]bool) bool {
	if id, _ := attr(n, "id"); id != "" && labeledIDs[id] {
		return true
	}
	if aria, _ := attr(n, "aria-label"); strings.TrimSpace(aria) != "" {
		return true
	}
	if aria, _ := attr(n, "aria-labelledby"); strings.TrimSpace(aria) != "" {
		return true
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "label" {
			return true
		}
	}
	return false
}

// headingProblem checks heading levels in document order and describes
// the first structural problem found. Empty means the structure is fine.
func headingProblem(levels []int) string {
	if len(levels) == 0 {
		return ""
	}
	if levels[0] != 1 {
		return fmt.Sprintf("first heading is h%d, expected h1", levels[0])
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] > levels[i-1]+1 {
			return fmt.Sprintf("heading jumps from h%d to h%d", levels[i-1], levels[i])
		}
	}
	return ""
}
