package parser

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"EventRadar/internal/infrastructure/fetch"
	"EventRadar/internal/ports"
)

const minArticleChars = 200

// ArticleReader downloads a news article and returns its readable body.
type ArticleReader struct {
	client *fetch.Client
}

var _ ports.ArticleReader = (*ArticleReader)(nil)

// NewArticleReader wires the shared fetch client.
func NewArticleReader(client *fetch.Client) *ArticleReader {
	return &ArticleReader{client: client}
}

// Read returns the article text, or "" when the page holds too little prose
// to be worth summarizing.
func (a *ArticleReader) Read(ctx context.Context, link string) (string, error) {
	doc, err := a.client.GetDocument(ctx, link)
	if err != nil {
		return "", err
	}
	return ArticleText(doc), nil
}

// ArticleText drops page chrome and joins the remaining paragraphs.
func ArticleText(doc *goquery.Document) string {
	doc.Find("script, style, header, nav, footer, aside, svg, figure, noscript, iframe").Remove()

	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if txt := collapse(p.Text()); txt != "" {
			paragraphs = append(paragraphs, txt)
		}
	})
	body := strings.Join(paragraphs, "\n")
	if body == "" {
		body = collapse(doc.Find("body").Text())
	}
	if len(body) <= minArticleChars {
		return ""
	}
	return body
}
