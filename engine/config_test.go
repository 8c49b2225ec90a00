package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluscraft/pluscraft/engine/window"
)

func TestLoadVideoModeMissingFileFallsBack(t *testing.T) {
	mode, err := LoadVideoMode(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultVideoMode(), mode)
}

func TestLoadVideoModeReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videomode.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
width = 1920
height = 1080
present_interval = 1
window_mode = "borderless"
`), 0o644))

	mode, err := LoadVideoMode(path)
	require.NoError(t, err)
	assert.Equal(t, 1920, mode.Width)
	assert.Equal(t, 1080, mode.Height)
	assert.Equal(t, 1, mode.PresentInterval)
	assert.Equal(t, window.ModeBorderless, mode.Mode())
}

func TestLoadVideoModePartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videomode.toml")
	require.NoError(t, os.WriteFile(path, []byte("width = 800\nheight = 600\n"), 0o644))

	mode, err := LoadVideoMode(path)
	require.NoError(t, err)
	assert.Equal(t, 800, mode.Width)
	assert.Equal(t, 0, mode.PresentInterval)
	assert.Equal(t, window.ModeWindowed, mode.Mode())
}

func TestLoadVideoModeRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videomode.toml")
	require.NoError(t, os.WriteFile(path, []byte("width = -1\nheight = 600\n"), 0o644))

	mode, err := LoadVideoMode(path)
	require.Error(t, err)
	assert.Equal(t, DefaultVideoMode(), mode)
}

func TestVideoModeValidate(t *testing.T) {
	assert.NoError(t, DefaultVideoMode().Validate())

	bad := DefaultVideoMode()
	bad.PresentInterval = -1
	assert.Error(t, bad.Validate())

	bad = DefaultVideoMode()
	bad.WindowMode = "cinema"
	assert.Error(t, bad.Validate())
}
