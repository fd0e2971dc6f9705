package markdown

import (
	"strings"

	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Outline renders a nested table of contents for a document, one line per
// heading with two-space indentation per level. Used by the navigation tool
// when presenting a single document.
func (p *Parser) Outline(doc *Document) string {
	source := []byte(doc.RawContent)
	root := p.md.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(root, source,
		toc.MinDepth(1),
		toc.MaxDepth(6),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return ""
	}

	var sb strings.Builder
	renderItems(&sb, tree.Items, 0)
	return strings.TrimRight(sb.String(), "\n")
}

func renderItems(sb *strings.Builder, items toc.Items, depth int) {
	for _, item := range items {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("- ")
		sb.Write(item.Title)
		if len(item.ID) > 0 {
			sb.WriteString(" (#")
			sb.Write(item.ID)
			sb.WriteString(")")
		}
		sb.WriteString("\n")
		if len(item.Items) > 0 {
			renderItems(sb, item.Items, depth+1)
		}
	}
}
