package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/loadwire/loadwire/models"
)

// newMarkdownConverter creates a reusable, goroutine-safe Converter:
//
//   - base plugin: strips script, style, iframe, noscript, head, meta,
//     link, input, textarea, and HTML comments.
//   - commonmark plugin: standard Markdown rendering.
//   - table plugin: preserves table structure with minimal cell padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// toMarkdown converts clean HTML to Markdown. The domain resolves
// relative URLs in <a> and <img> tags so the output is self-contained.
func toMarkdown(conv *converter.Converter, htmlContent string, domain string) (string, error) {
	return conv.ConvertString(htmlContent, converter.WithDomain(domain))
}

var excessiveBlankLines = regexp.MustCompile(`\n{3,}`)

// tidyMarkdown collapses runs of blank lines and trims the edges.
func tidyMarkdown(md string) string {
	md = excessiveBlankLines.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md)
}

// metadataHeader renders the header block that prefixes markdown output.
func metadataHeader(title, pageURL, published string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "URL Source: %s\n", pageURL)
	if published != "" {
		fmt.Fprintf(&b, "Published: %s\n", published)
	}
	b.WriteString("\n---\n\n")
	return b.String()
}

// appendImagesSummary attaches an images section to markdown content.
func appendImagesSummary(content string, images []models.ImageInfo) string {
	if len(images) == 0 {
		return content
	}
	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n\n## Images\n\n")
	for _, img := range images {
		if img.Alt != "" {
			fmt.Fprintf(&b, "- ![%s](%s)\n", img.Alt, img.Src)
		} else {
			fmt.Fprintf(&b, "- ![](%s)\n", img.Src)
		}
	}
	return b.String()
}

// appendLinksSummary attaches a links section to markdown content.
func appendLinksSummary(content string, links []models.LinkInfo) string {
	if len(links) == 0 {
		return content
	}
	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n\n## Links\n\n")
	for _, l := range links {
		text := l.Text
		if text == "" {
			text = l.Href
		}
		fmt.Fprintf(&b, "- [%s](%s)\n", text, l.Href)
	}
	return b.String()
}
