// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pptpdf/internal/container"
	"github.com/pdiddy/pptpdf/pkg/types"
)

func noRuntime(string) (container.Runtime, error) {
	return nil, errors.New("no container runtime available")
}

func TestSelectBackend(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.ConversionConfig
		goos     string
		wantName string
		wantErr  error
	}{
		{
			name:     "auto on linux is headless",
			goos:     "linux",
			wantName: "headless:soffice",
		},
		{
			name:     "auto on darwin is headless with configured program",
			cfg:      types.ConversionConfig{Backend: types.BackendAuto, Program: "/opt/lo/soffice"},
			goos:     "darwin",
			wantName: "headless:/opt/lo/soffice",
		},
		{
			name:     "forced headless",
			cfg:      types.ConversionConfig{Backend: types.BackendHeadless},
			goos:     "windows",
			wantName: "headless:soffice",
		},
		{
			name:     "container image with runtime",
			cfg:      types.ConversionConfig{Backend: types.BackendHeadless, ContainerImage: "office:latest"},
			goos:     "linux",
			wantName: "headless:docker:office:latest",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := selectBackend(tt.cfg, tt.goos, zerolog.Nop(), func(string) (container.Runtime, error) {
				return &fakeRuntime{}, nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, b.Name())
		})
	}
}

func TestSelectBackend_Errors(t *testing.T) {
	_, err := selectBackend(types.ConversionConfig{Backend: "magic"}, "linux", zerolog.Nop(), noRuntime)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown backend"))

	_, err = selectBackend(types.ConversionConfig{ContainerImage: "office:latest"}, "linux", zerolog.Nop(), noRuntime)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestSelectBackend_AutomationOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("automation availability depends on the installed office suite")
	}

	_, err := selectBackend(types.ConversionConfig{Backend: types.BackendAutomation}, runtime.GOOS, zerolog.Nop(), noRuntime)
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	// Auto on a Windows host without a usable automation server falls back.
	b, err := selectBackend(types.ConversionConfig{}, "windows", zerolog.Nop(), noRuntime)
	require.NoError(t, err)
	assert.Equal(t, "headless:soffice", b.Name())
}
