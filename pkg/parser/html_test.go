package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstH1(t *testing.T) {
	h1, ok := FirstH1([]byte(`<html><body><H1 class="x">Hello <b>World</b></H1><h1>second</h1></body></html>`))
	require.True(t, ok)
	require.Equal(t, "Hello <b>World</b>", h1.Raw)
	require.Equal(t, "Hello World", h1.Text)
}

func TestFirstH1Multiline(t *testing.T) {
	h1, ok := FirstH1([]byte("<h1>\n  Fish &amp;\n  Chips\n</h1>"))
	require.True(t, ok)
	require.Equal(t, "Fish & Chips", h1.Text)
}

func TestFirstH1Missing(t *testing.T) {
	_, ok := FirstH1([]byte(`<html><h2>nope</h2></html>`))
	require.False(t, ok)

	_, ok = FirstH1(nil)
	require.False(t, ok)
}

func TestCountTags(t *testing.T) {
	body := `<!DOCTYPE html>
<html><head><title>t</title><meta charset="utf-8"><link rel="icon" href="/f.ico"></head>
<body><p>one <a href="/">a</a></p><P>two</P><img src="x.png"/><br></body></html>`

	counts := CountTags([]byte(body))
	require.Equal(t, 1, counts["html"])
	require.Equal(t, 1, counts["title"])
	require.Equal(t, 2, counts["p"])
	require.Equal(t, 1, counts["a"])
	require.Equal(t, 1, counts["img"])
	require.Equal(t, 0, counts["h1"])
}

func TestTagLabelsAreReferenceTags(t *testing.T) {
	for _, l := range TagLabels {
		require.Contains(t, ReferenceTags, l.Tag)
	}
}
