package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/sitetrans/core"
)

func TestSlotsTargetExactLocations(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<html><body><p>Kurs</p><p>Kurs</p><img alt="Bild"></body></html>`)
	require.NoError(t, err)

	ps := doc.Find("p")
	second, err := doc.AddText(ps.Eq(1).Nodes[0].FirstChild)
	require.NoError(t, err)
	img, err := doc.AddAttr(doc.Find("img").Nodes[0], "alt")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Len())

	kind, err := doc.Kind(img)
	require.NoError(t, err)
	assert.Equal(t, core.Attribute, kind)

	got, err := doc.Get(img)
	require.NoError(t, err)
	assert.Equal(t, "Bild", got)

	require.NoError(t, doc.Set(second, "Course"))
	require.NoError(t, doc.Set(img, "Picture"))

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Equal(t, `<html><head></head><body><p>Kurs</p><p>Course</p><img alt="Picture"/></body></html>`, string(out))
}

func TestSlotErrors(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<p>x</p>`)
	require.NoError(t, err)

	p := doc.Find("p").Nodes[0]
	_, err = doc.AddText(p)
	assert.Error(t, err)
	_, err = doc.AddAttr(p.FirstChild, "title")
	assert.Error(t, err)
	_, err = doc.AddAttr(p, "")
	assert.Error(t, err)

	_, err = doc.Get(0)
	assert.Error(t, err)
	assert.Error(t, doc.Set(-1, "y"))
}

func TestSetAddsMissingAttribute(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<a href="/de/">x</a>`)
	require.NoError(t, err)

	i, err := doc.AddAttr(doc.Find("a").Nodes[0], "title")
	require.NoError(t, err)
	got, err := doc.Get(i)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, doc.Set(i, "Home"))
	assert.Contains(t, doc.Find("a").Nodes[0].Attr, html.Attribute{Key: "title", Val: "Home"})

	doc.Reset()
	assert.Zero(t, doc.Len())
}
