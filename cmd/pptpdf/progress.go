// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/pptpdf/pkg/types"
)

// progressObserver renders batch progress on a terminal writer.
type progressObserver struct {
	w      io.Writer
	bar    *progressbar.ProgressBar
	failed int
}

func newProgressObserver(w io.Writer) *progressObserver {
	return &progressObserver{w: w}
}

func (p *progressObserver) Start(total int) {
	p.failed = 0
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (p *progressObserver) Done(r types.ConversionResult) {
	if p.bar == nil {
		return
	}
	if !r.Succeeded() {
		p.failed++
		p.bar.Describe(fmt.Sprintf("converting (%d failed)", p.failed))
	}
	_ = p.bar.Add(1)
}

func (p *progressObserver) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
