package gcp

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"georef/pkg/geometry"
)

// The interchange format is one CSV row per point:
//
//	id,image_x,image_y,map_x,map_y,enabled
//
// Row order is insertion order. Rows with non-finite coordinates are
// rejected and the whole load fails, leaving no partial store.

var pointsHeader = []string{"id", "image_x", "image_y", "map_x", "map_y", "enabled"}

// WritePoints writes the store's points to w in the interchange format.
func WritePoints(w io.Writer, points []GroundControlPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pointsHeader); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{
			strconv.FormatInt(p.ID, 10),
			strconv.FormatFloat(p.Image.X, 'g', -1, 64),
			strconv.FormatFloat(p.Image.Y, 'g', -1, 64),
			strconv.FormatFloat(p.Map.X, 'g', -1, 64),
			strconv.FormatFloat(p.Map.Y, 'g', -1, 64),
			strconv.FormatBool(p.Enabled),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPoints parses the interchange format into a new store. File order
// becomes insertion order and the file's ids are preserved.
func ReadPoints(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(pointsHeader)
	cr.TrimLeadingSpace = true

	store := NewStore()
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read points: %w", err)
		}
		line++
		if line == 1 && rec[0] == pointsHeader[0] {
			continue
		}

		p, err := parsePointRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("points row %d: %w", line, err)
		}
		if err := store.addLoaded(p); err != nil {
			return nil, fmt.Errorf("points row %d: %w", line, err)
		}
	}
	return store, nil
}

func parsePointRecord(rec []string) (GroundControlPoint, error) {
	id, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return GroundControlPoint{}, &InvalidPointError{ID: -1, Reason: "bad id " + rec[0]}
	}
	coords := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return GroundControlPoint{}, &InvalidPointError{ID: id, Reason: "bad coordinate " + rec[i+1]}
		}
		coords[i] = v
	}
	enabled, err := strconv.ParseBool(rec[5])
	if err != nil {
		return GroundControlPoint{}, &InvalidPointError{ID: id, Reason: "bad enabled flag " + rec[5]}
	}
	return GroundControlPoint{
		ID:      id,
		Image:   geometry.Point2D{X: coords[0], Y: coords[1]},
		Map:     geometry.Point2D{X: coords[2], Y: coords[3]},
		Enabled: enabled,
	}, nil
}

// LoadPointsFile reads the interchange format from a file path.
func LoadPointsFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPoints(f)
}

// SavePointsFile writes the store's points to a file path.
func SavePointsFile(path string, store *Store) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePoints(f, store.List()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
