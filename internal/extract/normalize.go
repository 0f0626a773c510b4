package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// logicalLines flattens a document body into the lines the matchers run
// against. Helpdesk exports sometimes carry HTML instead of markdown, so
// HTML-looking text is reduced to visible text first. Markdown table rows
// are rewritten as "row cells + header cells" so a cell value can match
// together with its column label.
func logicalLines(text string) []string {
	if looksLikeHTML(text) {
		text = stripHTML(text)
	}

	raw := strings.Split(text, "\n")
	var out []string
	for i := 0; i < len(raw); i++ {
		line := strings.TrimSpace(raw[i])
		if line == "" {
			continue
		}
		if !isTableRow(line) {
			out = append(out, line)
			continue
		}

		// Table block: first row is the header, alignment rows are skipped.
		header := splitCells(line)
		for i++; i < len(raw); i++ {
			row := strings.TrimSpace(raw[i])
			if !isTableRow(row) {
				i--
				break
			}
			if isAlignmentRow(row) {
				continue
			}
			cells := splitCells(row)
			out = append(out, strings.Join(cells, " ")+" "+strings.Join(header, " "))
		}
	}
	return out
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, "|")
}

var alignmentRe = regexp.MustCompile(`^[|\s:-]+$`)

func isAlignmentRow(line string) bool {
	return alignmentRe.MatchString(line)
}

func splitCells(line string) []string {
	line = strings.Trim(line, "|")
	var cells []string
	for _, c := range strings.Split(line, "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

var htmlTagRe = regexp.MustCompile(`(?i)<(?:html|body|p|div|br|table|li|h[1-6])\b`)

func looksLikeHTML(text string) bool {
	return htmlTagRe.MatchString(text)
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// stripHTML reduces markup to visible text, one line per block element,
// skipping script/style content.
func stripHTML(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			buf.WriteString("\n")
		}
	}
	walk(doc)
	return buf.String()
}
