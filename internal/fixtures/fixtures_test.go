// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fixtures

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readParts(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	parts := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = string(body)
	}
	return parts
}

func wellFormed(t *testing.T, name, body string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(body))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err, "part %s is not well-formed XML", name)
	}
}

func TestBuild_PackageStructure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Build(&buf, Single()))
	parts := readParts(t, buf.Bytes())

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/slideLayouts/slideLayout2.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
	} {
		assert.Contains(t, parts, name)
	}
	for name, body := range parts {
		wellFormed(t, name, body)
	}
}

func TestBuild_SlideContent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Build(&buf, Single()))
	parts := readParts(t, buf.Bytes())

	title := parts["ppt/slides/slide1.xml"]
	assert.Contains(t, title, "<a:t>Test Presentation</a:t>")
	assert.Contains(t, title, "<a:t>This is a test slide for PPT to PDF conversion</a:t>")

	bullets := parts["ppt/slides/slide2.xml"]
	assert.Contains(t, bullets, "<a:t>Second Slide</a:t>")
	assert.Contains(t, bullets, `<a:pPr lvl="1"/><a:r><a:rPr lang="en-US" sz="2800" dirty="0"/><a:t>This is a second level bullet</a:t>`)
	assert.Contains(t, bullets, `<a:pPr lvl="2"/><a:r><a:rPr lang="en-US" sz="2800" dirty="0"/><a:t>This is a third level bullet</a:t>`)
}

func TestBuild_EscapesText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Build(&buf, Deck{Filename: "x.pptx", Title: "Q&A <draft>", Subtitle: `"quoted"`}))
	parts := readParts(t, buf.Bytes())

	assert.Contains(t, parts["ppt/slides/slide1.xml"], "Q&amp;A &lt;draft&gt;")
	wellFormed(t, "slide1", parts["ppt/slides/slide1.xml"])
	wellFormed(t, "core", parts["docProps/core.xml"])
}

func TestBuild_RequiresTitle(t *testing.T) {
	assert.Error(t, Build(io.Discard, Deck{Filename: "x.pptx"}))
}

func TestDefaultSet(t *testing.T) {
	decks := DefaultSet()
	require.Len(t, decks, 4)
	assert.Equal(t, "presentation_1.pptx", decks[0].Filename)
	assert.Equal(t, "First Test Presentation", decks[0].Title)
	assert.Equal(t, "This is the test slide for presentation_1.pptx", decks[0].Subtitle)
	assert.Equal(t, "my_presentation.pptx", decks[3].Filename)
	assert.Equal(t, "My Sample Presentation", decks[3].Title)
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "decks")
	var out bytes.Buffer

	paths, err := WriteAll(dir, DefaultSet(), &out)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
		assert.Contains(t, out.String(), "Created "+p)
	}
}
