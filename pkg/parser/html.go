package parser

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// First literal <h1>...</h1> span. Not a DOM walk, as an HTML5 parser
// would restructure broken markup.
var h1Re = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)

type H1 struct {
	Raw  string // inner markup, verbatim
	Text string // tags stripped, entities decoded, whitespace collapsed
}

func FirstH1(body []byte) (H1, bool) {
	m := h1Re.FindSubmatch(body)
	if m == nil {
		return H1{}, false
	}
	raw := string(m[1])
	return H1{Raw: raw, Text: stripTags(raw)}, true
}

func stripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			if !errors.Is(z.Err(), io.EOF) {
				log.Info("Tokenizing H1 contents", "error", z.Err())
			}
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// Tag boundaries separate words, eg <br>
			sb.WriteByte(' ')
		}
	}
}

// ReferenceTags is printed in this order.
var ReferenceTags = []string{"html", "head", "body", "title", "meta", "link", "script", "h1", "h2", "p", "a", "img"}

type TagLabel struct {
	Label string
	Tag   string
}

var TagLabels = []TagLabel{
	{"title", "title"},
	{"paragraph", "p"},
	{"link", "a"},
	{"image", "img"},
	{"heading1", "h1"},
	{"heading2", "h2"},
}

// CountTags counts start tags (including self-closing ones) by lower-case
// name. Best-effort: it stops quietly at the first tokenizer error.
func CountTags(body []byte) map[string]int {
	counts := map[string]int{}
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return counts
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			counts[string(name)]++
		}
	}
}
