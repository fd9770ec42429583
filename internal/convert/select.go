// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	goruntime "runtime"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pptpdf/internal/container"
	"github.com/pdiddy/pptpdf/pkg/types"
)

// Select chooses the backend once, at startup, from cfg and the host
// platform. In auto mode Windows gets PowerPoint automation when it is
// registered and the headless converter otherwise; other platforms always
// get the headless converter.
func Select(cfg types.ConversionConfig, log zerolog.Logger) (Backend, error) {
	return selectBackend(cfg, goruntime.GOOS, log, container.Named)
}

func selectBackend(cfg types.ConversionConfig, goos string, log zerolog.Logger,
	runtimeFor func(string) (container.Runtime, error)) (Backend, error) {
	kind := cfg.Backend
	if kind == "" {
		kind = types.BackendAuto
	}

	switch kind {
	case types.BackendAuto:
		if goos == "windows" {
			b, err := NewAutomationBackend()
			if err == nil {
				return b, nil
			}
			if !errors.Is(err, ErrBackendUnavailable) {
				return nil, err
			}
			log.Warn().Err(err).Msg("automation unavailable, falling back to headless converter")
		}
		return headless(cfg, runtimeFor)
	case types.BackendAutomation:
		return NewAutomationBackend()
	case types.BackendHeadless:
		return headless(cfg, runtimeFor)
	default:
		return nil, fmt.Errorf("unknown backend %q: use %s, %s, or %s",
			kind, types.BackendAuto, types.BackendAutomation, types.BackendHeadless)
	}
}

func headless(cfg types.ConversionConfig, runtimeFor func(string) (container.Runtime, error)) (Backend, error) {
	if cfg.ContainerImage == "" {
		return NewHeadlessBackend(cfg.Program), nil
	}
	rt, err := runtimeFor(cfg.Runtime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return NewContainerHeadlessBackend(rt, cfg.ContainerImage, cfg.Program)
}
