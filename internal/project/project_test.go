package project

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georef/internal/transform"
	"georef/internal/warp"
)

func TestProjectRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.georef")

	p := New("1891 city survey")
	p.TargetCRS = "EPSG:28992"
	p.Spec = transform.Spec{
		Algorithm: transform.AlgorithmPolynomial,
		Order:     2,
		Weighting: transform.WeightingInverseDistance,
	}
	p.SetImage(path, filepath.Join(dir, "scans", "plate7.tif"))
	p.SetPoints(path, filepath.Join(dir, "plate7.points"))
	require.NoError(t, p.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1891 city survey", loaded.Name)
	assert.Equal(t, "EPSG:28992", loaded.TargetCRS)
	assert.Equal(t, p.Spec, loaded.Spec)
	assert.Equal(t, filepath.Join("scans", "plate7.tif"), loaded.ImagePath)
	assert.Equal(t, filepath.Join(dir, "scans", "plate7.tif"), loaded.ImageAbsPath(path))
	assert.Equal(t, filepath.Join(dir, "plate7.points"), loaded.PointsAbsPath(path))
}

func TestNewDefaults(t *testing.T) {
	p := New("untitled")
	assert.Equal(t, transform.DefaultSpec(), p.Spec)
	assert.Equal(t, warp.ModeBilinear, p.Settings.ExportMode)
	assert.True(t, p.Settings.LivePreview)
}
