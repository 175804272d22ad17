// Command georef fits a transformation from a GCP file and georeferences
// an image: prints per-point residuals and optionally writes the warped,
// georeferenced output.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"georef/internal/config"
	"georef/internal/export"
	"georef/internal/gcp"
	"georef/internal/project"
	"georef/internal/session"
	"georef/internal/transform"
	"georef/internal/warp"

	_ "golang.org/x/image/tiff"
)

func main() {
	projPath := flag.String("project", "", "Path to a .georef project file")
	imagePath := flag.String("image", "", "Path to the source image")
	pointsPath := flag.String("points", "", "Path to the GCP file (csv)")
	configPath := flag.String("config", "", "Path to an engine config file (yaml)")
	algorithm := flag.String("algorithm", "affine", "Transformation: affine, polynomial, tps")
	order := flag.Int("order", 2, "Polynomial order (1-3), used with -algorithm polynomial")
	weighting := flag.String("weighting", "none", "GCP weighting: none, inverse_distance, inverse_distance_squared")
	reg := flag.Float64("reg", 0, "TPS regularization (0 = exact interpolation)")
	crs := flag.String("crs", "", "Target reference identifier written to export metadata")
	out := flag.String("out", "", "Output raster path (tiff); omit to only print residuals")
	mode := flag.String("mode", "", "Resampling: nearest or bilinear (default from config)")
	pixelSize := flag.Float64("pixel-size", 0, "Output map units per pixel (0 = native)")
	passThrough := flag.Bool("passthrough", false, "Write source pixels with the fit's geotransform (linear fits only)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	spec := transform.Spec{
		Algorithm:      transform.Algorithm(*algorithm),
		Order:          *order,
		Weighting:      transform.WeightingMode(*weighting),
		Regularization: *reg,
	}

	if *projPath != "" {
		proj, err := project.Load(*projPath)
		if err != nil {
			fatalf("Failed to load project: %v", err)
		}
		if *imagePath == "" {
			*imagePath = proj.ImageAbsPath(*projPath)
		}
		if *pointsPath == "" {
			*pointsPath = proj.PointsAbsPath(*projPath)
		}
		if *crs == "" {
			*crs = proj.TargetCRS
		}
		spec = proj.Spec
	}

	if *imagePath == "" || *pointsPath == "" {
		fmt.Println("Usage: georef -image <raster> -points <gcps.csv> [-out <tiff>] [flags]")
		os.Exit(1)
	}

	fmt.Printf("=== Loading image: %s ===\n", *imagePath)
	src, err := loadRaster(*imagePath)
	if err != nil {
		fatalf("Failed to load image: %v", err)
	}
	fmt.Printf("%dx%d, %d channels\n", src.Width, src.Height, src.Channels)

	fmt.Printf("\n=== Loading points: %s ===\n", *pointsPath)
	store, err := gcp.LoadPointsFile(*pointsPath)
	if err != nil {
		fatalf("Failed to load points: %v", err)
	}
	fmt.Printf("%d points (%d enabled)\n", store.Len(), store.EnabledCount())

	sess := session.New(cfg.Fit)
	sess.SetSource(src)
	sess.SetCRS(*crs)
	sess.ReplaceStore(store)
	if err := sess.SetSpec(spec); err != nil {
		fatalf("Bad transformation spec: %v", err)
	}

	fmt.Printf("\n=== Fitting: %s ===\n", spec.Key())
	fitted, err := sess.CurrentFit()
	if err != nil {
		var short *transform.InsufficientPointsError
		if errors.As(err, &short) {
			fatalf("Fit failed: %v — add %d more point(s) or pick a simpler algorithm", err, short.Shortfall())
		}
		fatalf("Fit failed: %v", err)
	}
	fmt.Printf("Fit OK: %d control points, store version %d\n", fitted.ControlCount(), fitted.Version())

	report, err := sess.Residuals()
	if err != nil {
		fatalf("Residual evaluation failed: %v", err)
	}
	printResiduals(store.List(), report)
	fmt.Printf("\nRMS: %.4f map units\n", report.RMS)
	fmt.Printf("Max: %.4f map units (point %d)\n", report.Max, report.MaxID)

	if *out == "" {
		return
	}

	fmt.Printf("\n=== Exporting: %s ===\n", *out)
	exportMode := cfg.Warp.Mode
	if *mode != "" {
		exportMode = warp.Mode(*mode)
	}
	artifact, err := sess.Export(*out, export.Options{
		PixelSize:   *pixelSize,
		Mode:        exportMode,
		Margin:      cfg.Warp.Margin,
		PassThrough: *passThrough,
	})
	if err != nil {
		fatalf("Export failed: %v", err)
	}
	gt := artifact.GeoTransform
	fmt.Printf("%dx%d pixels, origin (%.6g, %.6g), pixel size (%.6g, %.6g)\n",
		artifact.Raster.Width, artifact.Raster.Height, gt[0], gt[3], gt[1], gt[5])
	if artifact.CRS != "" {
		fmt.Printf("CRS: %s\n", artifact.CRS)
	}
}

func printResiduals(points []gcp.GroundControlPoint, report transform.Report) {
	fmt.Printf("\nPer-point residuals:\n")
	byID := make(map[int64]transform.PointResidual, len(report.PerPoint))
	for _, pr := range report.PerPoint {
		byID[pr.ID] = pr
	}
	for _, p := range points {
		pr := byID[p.ID]
		state := " "
		if !p.Enabled {
			state = "x" // excluded from the fit
		}
		fmt.Printf("  [%s] %3d  img=(%8.2f, %8.2f)  map=(%12.4f, %12.4f)  w=%.3g  err=%.4f\n",
			state, p.ID, p.Image.X, p.Image.Y, p.Map.X, p.Map.Y, p.Weight, pr.Distance)
	}
}

func loadRaster(path string) (*warp.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return warp.FromImage(img), nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
