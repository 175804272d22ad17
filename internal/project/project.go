// Package project provides georeferencing project file handling and
// persistence.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"georef/internal/transform"
	"georef/internal/warp"
)

// File represents a georeferencing project file (.georef): the image
// being referenced, its GCP interchange file, the target reference
// system and the chosen transformation settings.
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Paths relative to the project file
	ImagePath  string `json:"image,omitempty"`
	PointsPath string `json:"points,omitempty"`

	// TargetCRS is the opaque target reference identifier, e.g. an
	// EPSG-style code. Passed through to export metadata unvalidated.
	TargetCRS string `json:"target_crs,omitempty"`

	// Transformation selection
	Spec transform.Spec `json:"spec"`

	// User settings
	Settings Settings `json:"settings,omitempty"`
}

// Settings holds user preferences for the project.
type Settings struct {
	PreviewMode      warp.Mode `json:"preview_mode,omitempty"`
	ExportMode       warp.Mode `json:"export_mode,omitempty"`
	ExportPixelSize  float64   `json:"export_pixel_size,omitempty"`
	LivePreview      bool      `json:"live_preview"`
	PreviewPixelSize float64   `json:"preview_pixel_size,omitempty"`
}

// New creates a new project file with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
		Spec:     transform.DefaultSpec(),
		Settings: Settings{
			PreviewMode: warp.ModeNearest,
			ExportMode:  warp.ModeBilinear,
			LivePreview: true,
		},
	}
}

// Load loads a project from a .georef file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetImage sets the image path (relative to the project).
func (p *File) SetImage(projectPath, imagePath string) {
	p.ImagePath = relToProject(projectPath, imagePath)
	p.Modified = time.Now()
}

// SetPoints sets the GCP interchange file path (relative to the project).
func (p *File) SetPoints(projectPath, pointsPath string) {
	p.PointsPath = relToProject(projectPath, pointsPath)
	p.Modified = time.Now()
}

// ImageAbsPath returns the absolute path to the image.
func (p *File) ImageAbsPath(projectPath string) string {
	return absFromProject(projectPath, p.ImagePath)
}

// PointsAbsPath returns the absolute path to the GCP file.
func (p *File) PointsAbsPath(projectPath string) string {
	return absFromProject(projectPath, p.PointsPath)
}

func relToProject(projectPath, target string) string {
	rel, err := filepath.Rel(filepath.Dir(projectPath), target)
	if err != nil {
		return target
	}
	return rel
}

func absFromProject(projectPath, target string) string {
	if target == "" || filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(projectPath), target)
}
