package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChangePage(t *testing.T) {
	cmd, err := NewChangePage(3)
	require.NoError(t, err)
	assert.Equal(t, CommandChangePage, cmd.Type)
	assert.Equal(t, 3, cmd.Page)
	assert.False(t, cmd.PublishedAt.IsZero())

	_, err = NewChangePage(0)
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = NewChangePage(-7)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestNewZoomToX(t *testing.T) {
	cmd, err := NewZoomToX(1.5, 4.25)
	require.NoError(t, err)
	assert.Equal(t, CommandZoomToX, cmd.Type)
	assert.Equal(t, XBounds{Left: 1.5, Right: 4.25}, cmd.Bounds)

	_, err = NewZoomToX(10, 5)
	assert.ErrorIs(t, err, ErrInvalidXBounds)

	_, err = NewZoomToX(2, 2)
	assert.ErrorIs(t, err, ErrInvalidXBounds)
}

func TestNewZoomToY(t *testing.T) {
	cmd, err := NewZoomToY(5, 10)
	require.NoError(t, err)
	assert.Equal(t, CommandZoomToY, cmd.Type)
	assert.Equal(t, YBounds{Top: 5, Bottom: 10}, cmd.Bounds)

	_, err = NewZoomToY(10, 5)
	assert.ErrorIs(t, err, ErrInvalidYBounds)
}

func TestCommandWireShape(t *testing.T) {
	cmd, err := NewZoomToY(5, 10)
	require.NoError(t, err)

	raw, err := json.Marshal(cmd)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "zoomToY", decoded["type"])
	assert.NotContains(t, decoded, "page")
	bounds, ok := decoded["bounds"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 5.0, bounds["top"])
	assert.Equal(t, 10.0, bounds["bottom"])

	page, err := NewChangePage(3)
	require.NoError(t, err)
	raw, err = json.Marshal(page)
	require.NoError(t, err)
	decoded = map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "changePage", decoded["type"])
	assert.Equal(t, 3.0, decoded["page"])
	assert.NotContains(t, decoded, "bounds")
}
