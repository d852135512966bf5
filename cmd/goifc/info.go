package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/philipparndt/goifc/cmd"
	"github.com/philipparndt/goifc/internal/models"
	"github.com/philipparndt/goifc/pkg/analysis"
	"github.com/philipparndt/goifc/pkg/ifc"
	"github.com/philipparndt/goifc/pkg/loader"
)

var (
	infoFormat    string
	infoThreshold float64
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display general information about an IFC file",
	Long:  "Show schema, product and triangle counts, surface area, dimensions, feature edges and the display style derived from the file name.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().StringVarP(&infoFormat, "format", "f", "text", "Output format (text, yaml)")
	infoCmd.Flags().Float64Var(&infoThreshold, "threshold", models.DefaultEdgeThreshold, "Feature edge angle in degrees")
}

// infoReport is the yaml form of the info command
type infoReport struct {
	File       string  `yaml:"file"`
	Discipline string  `yaml:"discipline"`
	Color      string  `yaml:"color"`
	Opacity    float64 `yaml:"opacity"`

	analysis.ModelStats `yaml:",inline"`
}

// loadModel loads a file or URL the way the viewer does
func loadModel(ctx context.Context, filename string) (*ifc.Model, *zap.Logger, error) {
	cfg, logger, err := cmd.Setup()
	if err != nil {
		return nil, nil, err
	}

	ld, err := loader.Open(ctx, "", cfg.WasmPlugin, logger)
	if err != nil {
		return nil, nil, err
	}
	defer ld.Close(ctx)

	model, err := ld.Load(ctx, filename)
	if err != nil {
		return nil, nil, err
	}
	return model, logger, nil
}

func runInfo(c *cobra.Command, args []string) error {
	filename := args[0]
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	model, logger, err := loadModel(ctx, filename)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", filename, err)
	}
	defer logger.Sync()

	discipline := models.Classify(filename)
	style := models.StyleFor(discipline)
	result := analysis.AnalyzeModel(model, infoThreshold)

	out := c.OutOrStdout()
	switch infoFormat {
	case "yaml":
		report := infoReport{
			File:       filename,
			Discipline: discipline.String(),
			Color:      style.Hex(),
			Opacity:    style.Opacity,
			ModelStats: *result,
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	case "text":
		printInfo(out, filename, discipline, style, result)
		return nil
	default:
		return fmt.Errorf("unknown format %q", infoFormat)
	}
}

func printInfo(out io.Writer, filename string, discipline models.Discipline, style models.Material, result *analysis.ModelStats) {
	fmt.Fprintln(out, "IFC File Information")
	fmt.Fprintln(out, "====================")
	if result.Name != "" {
		fmt.Fprintf(out, "Name: %s\n", result.Name)
	}
	fmt.Fprintf(out, "File: %s\n", filename)
	fmt.Fprintf(out, "Schema: %s\n\n", result.Schema)

	fmt.Fprintln(out, "Display:")
	fmt.Fprintf(out, "  Discipline: %s\n", discipline)
	fmt.Fprintf(out, "  Color: %s\n", style.Hex())
	fmt.Fprintf(out, "  Opacity: %.2f\n\n", style.Opacity)

	fmt.Fprintln(out, "Model Statistics:")
	fmt.Fprintf(out, "  Products: %d\n", result.ProductCount)
	fmt.Fprintf(out, "  Triangles: %d\n", result.TriangleCount)
	fmt.Fprintf(out, "  Surface Area: %s\n\n", analysis.FormatMeasurement(result.SurfaceArea, "m²"))

	fmt.Fprintln(out, "Bounding Box:")
	fmt.Fprintf(out, "  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Fprintf(out, "  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Fprintf(out, "  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

	fmt.Fprintln(out, "Dimensions:")
	fmt.Fprintf(out, "  Width (X): %s\n", analysis.FormatMeasurement(result.Dimensions[0], ""))
	fmt.Fprintf(out, "  Depth (Y): %s\n", analysis.FormatMeasurement(result.Dimensions[1], ""))
	fmt.Fprintf(out, "  Height (Z): %s\n", analysis.FormatMeasurement(result.Dimensions[2], ""))
	fmt.Fprintf(out, "  Diagonal: %s\n\n", analysis.FormatMeasurement(result.BoundingBox.Diagonal(), ""))

	fmt.Fprintln(out, "Feature Edges:")
	fmt.Fprintf(out, "  Count: %d\n", result.Edges.Count)
	if result.Edges.Count > 0 {
		fmt.Fprintf(out, "  Minimum: %s\n", analysis.FormatMeasurement(result.Edges.Min, ""))
		fmt.Fprintf(out, "  Maximum: %s\n", analysis.FormatMeasurement(result.Edges.Max, ""))
		fmt.Fprintf(out, "  Average: %s\n", analysis.FormatMeasurement(result.Edges.Avg, ""))
	}

	if len(result.Products) > 0 {
		fmt.Fprintln(out, "\nProducts:")
		for _, p := range result.Products {
			fmt.Fprintf(out, "  %-32s %d\n", p.Type, p.Count)
		}
	}
	if len(result.Unsupported) > 0 {
		fmt.Fprintln(out, "\nUnsupported representation items:")
		for _, u := range result.Unsupported {
			fmt.Fprintf(out, "  %-32s %d\n", u.Type, u.Count)
		}
	}
}
