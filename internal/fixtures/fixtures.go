// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fixtures writes small, valid .pptx presentations for exercising
// the converter: a title slide followed by a three-level bullet slide.
package fixtures

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Deck describes one generated presentation.
type Deck struct {
	Filename string
	Title    string
	Subtitle string
}

// Bullets are the paragraphs of the second slide, indexed by indent level.
var Bullets = []string{
	"This is the main point",
	"This is a second level bullet",
	"This is a third level bullet",
}

const bulletSlideTitle = "Second Slide"

// DefaultSet returns the multi-file batch used for bulk conversion runs.
func DefaultSet() []Deck {
	decks := []Deck{
		{Filename: "presentation_1.pptx", Title: "First Test Presentation"},
		{Filename: "presentation_2.pptx", Title: "Second Test Presentation"},
		{Filename: "presentation_3.pptx", Title: "Third Test Presentation"},
		{Filename: "my_presentation.pptx", Title: "My Sample Presentation"},
	}
	for i := range decks {
		decks[i].Subtitle = "This is the test slide for " + decks[i].Filename
	}
	return decks
}

// Single returns the lone presentation used for one-file smoke tests.
func Single() Deck {
	return Deck{
		Filename: "test_presentation.pptx",
		Title:    "Test Presentation",
		Subtitle: "This is a test slide for PPT to PDF conversion",
	}
}

// WriteAll writes each deck into dir, creating it if needed, and prints
// "Created <path>" per file to w. It stops at the first failure.
func WriteAll(dir string, decks []Deck, w io.Writer) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating fixture directory %s: %w", dir, err)
	}
	paths := make([]string, 0, len(decks))
	for _, d := range decks {
		path := filepath.Join(dir, d.Filename)
		if err := WriteFile(path, d); err != nil {
			return paths, err
		}
		fmt.Fprintf(w, "Created %s\n", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteFile writes d as a .pptx package at path.
func WriteFile(path string, d Deck) error {
	var buf bytes.Buffer
	if err := Build(&buf, d); err != nil {
		return fmt.Errorf("building %s: %w", d.Filename, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Build writes the zip package for d to w.
func Build(w io.Writer, d Deck) error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("deck %q has no title", d.Filename)
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"docProps/core.xml", corePropsXML(d.Title, time.Now().UTC())},
		{"docProps/app.xml", appPropsXML},
		{"ppt/presentation.xml", presentationXML},
		{"ppt/_rels/presentation.xml.rels", presentationRelsXML},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML("title", "Title Slide")},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/slideLayouts/slideLayout2.xml", slideLayoutXML("obj", "Title and Content")},
		{"ppt/slideLayouts/_rels/slideLayout2.xml.rels", slideLayoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML},
		{"ppt/slides/slide1.xml", titleSlideXML(d.Title, d.Subtitle)},
		{"ppt/slides/_rels/slide1.xml.rels", slideRelsXML(1)},
		{"ppt/slides/slide2.xml", bulletSlideXML(bulletSlideTitle, Bullets)},
		{"ppt/slides/_rels/slide2.xml.rels", slideRelsXML(2)},
	}

	for _, p := range parts {
		if err := writeZipTextFile(zw, p.name, p.content); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func writeZipTextFile(zw *zip.Writer, name, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("write zip entry %s: %w", name, err)
	}
	return nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
