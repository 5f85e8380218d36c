package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/sitetrans/core"
	"github.com/gaurav-prasanna/sitetrans/core/document"
)

const page = `<!DOCTYPE html>
<html lang="de">
<head>
  <title>Seminare</title>
  <meta name="description" content="Unsere Seminare">
  <meta property="og:title" content="Seminare bei uns">
  <meta name="viewport" content="width=device-width">
  <script>var label = "Nicht übersetzen";</script>
  <style>p { color: red; }</style>
</head>
<body>
  <h1>Willkommen</h1>
  <p>Hallo <b>Welt</b>!</p>
  <img src="/a.png" alt="Ein Bild">
  <a href="/de/kontakt.html" title="Zum Kontakt">Kontakt</a>
  <pre>code bleibt</pre>
  <div>Freier Text</div>
  <p><!-- Kommentar -->Nach dem Kommentar</p>
</body>
</html>`

func TestExtractOrderAndScope(t *testing.T) {
	t.Parallel()

	doc, err := document.ParseString(page)
	require.NoError(t, err)

	items, err := New().Extract(doc)
	require.NoError(t, err)

	var texts []string
	for _, it := range items {
		texts = append(texts, it.Text)
	}
	assert.Equal(t, []string{
		"Seminare",
		"Unsere Seminare",
		"Seminare bei uns",
		"Willkommen",
		"Hallo ", "Welt", "!",
		"Ein Bild",
		"Zum Kontakt",
		"Kontakt",
		"Nach dem Kommentar",
	}, texts)

	assert.Equal(t, core.Attribute, items[1].Kind)
	assert.Equal(t, "content", items[1].Attr)
	assert.Equal(t, core.TextNode, items[3].Kind)
	assert.Equal(t, "alt", items[7].Attr)
	assert.Equal(t, "title", items[8].Attr)

	for i, it := range items {
		assert.Equal(t, i, it.Index)
		got, err := doc.Get(it.Index)
		require.NoError(t, err)
		assert.Equal(t, it.Text, got)
	}
}

func TestExtractIsStable(t *testing.T) {
	t.Parallel()

	doc, err := document.ParseString(page)
	require.NoError(t, err)

	ex := New()
	first, err := ex.Extract(doc)
	require.NoError(t, err)
	second, err := ex.Extract(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, len(first), doc.Len())
}

func TestRepeatedTextGetsDistinctSlots(t *testing.T) {
	t.Parallel()

	doc, err := document.ParseString(`<ul><li>Mehr</li><li>Mehr</li></ul>`)
	require.NoError(t, err)

	items, err := New().Extract(doc)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, doc.Set(items[1].Index, "More"))
	out, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, string(out), "<li>Mehr</li><li>More</li>")
}
