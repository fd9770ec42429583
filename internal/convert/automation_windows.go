// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build windows

package convert

import (
	"errors"
	"fmt"
	"runtime"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

const (
	// sFalse is returned by CoInitializeEx when COM is already initialised
	// on the calling thread.
	sFalse = 0x00000001

	msoTrue  = -1
	msoFalse = 0
)

// comInit initialises an apartment-threaded COM library on the current OS
// thread, which the caller must have locked.
func comInit() error {
	err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	if err == nil {
		return nil
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) && oleErr.Code() == sFalse {
		return nil
	}
	return fmt.Errorf("initialising COM: %w", err)
}

func probeAutomation(progID string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := comInit(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer ole.CoUninitialize()

	if _, err := ole.CLSIDFromProgID(progID); err != nil {
		return fmt.Errorf("%w: %s is not registered (is PowerPoint installed?): %v", ErrBackendUnavailable, progID, err)
	}
	return nil
}

// exportPDF runs create -> open -> export -> close -> quit against a fresh
// application instance. Every dispatch object is released before returning.
func exportPDF(progID, input, output string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := comInit(); err != nil {
		return err
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject(progID)
	if err != nil {
		return fmt.Errorf("starting %s: %w", progID, err)
	}
	defer unknown.Release()

	app, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("querying %s dispatch: %w", progID, err)
	}
	defer app.Release()
	defer oleutil.CallMethod(app, "Quit")

	presentations, err := oleutil.GetProperty(app, "Presentations")
	if err != nil {
		return fmt.Errorf("getting presentations collection: %w", err)
	}
	presDisp := presentations.ToIDispatch()
	defer presDisp.Release()

	// Open(FileName, ReadOnly, Untitled, WithWindow)
	opened, err := oleutil.CallMethod(presDisp, "Open", input, msoTrue, msoFalse, msoFalse)
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	doc := opened.ToIDispatch()
	defer doc.Release()

	_, exportErr := oleutil.CallMethod(doc, "Export", output, "PDF")
	if _, err := oleutil.CallMethod(doc, "Close"); err != nil && exportErr == nil {
		return fmt.Errorf("closing %s: %w", input, err)
	}
	if exportErr != nil {
		return fmt.Errorf("exporting %s to PDF: %w", input, exportErr)
	}
	return nil
}
