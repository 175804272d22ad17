package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// Sidecar is the JSON metadata written next to the pixel file. It
// carries the pieces a plain TIFF cannot: the six geotransform
// coefficients and the target reference identifier.
type Sidecar struct {
	CRS          string     `json:"crs"`
	GeoTransform [6]float64 `json:"geotransform"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	NoData       string     `json:"nodata"` // how no-data pixels are flagged
}

// Save writes the artifact as a deflate-compressed TIFF plus an ESRI
// world file and a JSON sidecar with the geotransform and CRS id.
func Save(path string, artifact *Artifact) error {
	img := artifact.Raster.ToImage(artifact.Mask)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		f.Close()
		return fmt.Errorf("encode tiff: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := writeWorldFile(worldFilePath(path), artifact.GeoTransform); err != nil {
		return err
	}
	return writeSidecar(path+".aux.json", artifact)
}

// writeWorldFile writes the six world-file lines: pixel sizes and
// rotation terms, then the map coordinate of the center of the top-left
// pixel.
func writeWorldFile(path string, gt [6]float64) error {
	center := [2]float64{
		gt[0] + 0.5*gt[1] + 0.5*gt[2],
		gt[3] + 0.5*gt[4] + 0.5*gt[5],
	}
	content := fmt.Sprintf("%.12g\n%.12g\n%.12g\n%.12g\n%.12g\n%.12g\n",
		gt[1], gt[4], gt[2], gt[5], center[0], center[1])
	return os.WriteFile(path, []byte(content), 0644)
}

func writeSidecar(path string, artifact *Artifact) error {
	data, err := json.MarshalIndent(Sidecar{
		CRS:          artifact.CRS,
		GeoTransform: artifact.GeoTransform,
		Width:        artifact.Raster.Width,
		Height:       artifact.Raster.Height,
		NoData:       "alpha=0",
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// worldFilePath derives the world-file name from the raster name using
// the first-and-last-letter convention: .tif -> .tfw, .png -> .pgw.
// Unknown extensions get .wld.
func worldFilePath(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if len(ext) == 4 {
		e := strings.TrimPrefix(ext, ".")
		return base + "." + string(e[0]) + string(e[2]) + "w"
	}
	return base + ".wld"
}
