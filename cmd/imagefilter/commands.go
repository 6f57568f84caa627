package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	imagefilter "github.com/Skryldev/image-filter"
	"github.com/Skryldev/image-filter/adjust"
	"github.com/Skryldev/image-filter/core"
	"github.com/Skryldev/image-filter/filters"
)

var adjustCmd = &cobra.Command{
	Use:   "adjust <input>",
	Short: "Apply the standard adjustments in their fixed order",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdjust,
}

var patternCmd = &cobra.Command{
	Use:   "pattern <input>",
	Short: "Overlay a stripe or ring pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  runPattern,
}

var gradientCmd = &cobra.Command{
	Use:   "gradient <input>",
	Short: "Overlay a linear gradient",
	Args:  cobra.ExactArgs(1),
	RunE:  runGradient,
}

var bandsCmd = &cobra.Command{
	Use:   "bands <input>",
	Short: "Overlay color bands",
	Args:  cobra.ExactArgs(1),
	RunE:  runBands,
}

var edgesCmd = &cobra.Command{
	Use:   "edges <input>",
	Short: "Replace the image with its edge gradient",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdges,
}

var saveCmd = &cobra.Command{
	Use:   "save <input> <destination>",
	Short: "Decode an image and save it as PNG under a timestamped name",
	Args:  cobra.ExactArgs(2),
	RunE:  runSave,
}

var batchCmd = &cobra.Command{
	Use:   "batch <output-dir> <input>...",
	Short: "Run the same adjustments on many images in parallel",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBatch,
}

var adjustFlags struct {
	brighten  int
	blur      float64
	hue       int
	grayscale bool
	contrast  float64
	invert    bool
}

var filterFlags struct {
	pattern   string
	color     string
	from      string
	to        string
	colors    string
	direction string
}

func init() {
	for _, c := range []*cobra.Command{adjustCmd, batchCmd} {
		c.Flags().IntVar(&adjustFlags.brighten, "brighten", 0, "Signed brightness delta")
		c.Flags().Float64Var(&adjustFlags.blur, "blur", 0, "Gaussian blur sigma")
		c.Flags().IntVar(&adjustFlags.hue, "hue", 0, "Hue rotation in degrees")
		c.Flags().BoolVar(&adjustFlags.grayscale, "grayscale", false, "Convert to grayscale")
		c.Flags().Float64Var(&adjustFlags.contrast, "contrast", 0, "Contrast percentage")
		c.Flags().BoolVar(&adjustFlags.invert, "invert", false, "Invert colors")
	}

	patternCmd.Flags().StringVar(&filterFlags.pattern, "pattern", "vertical", "vertical, horizontal, diagonal or circle")
	patternCmd.Flags().StringVar(&filterFlags.color, "color", "", "Overlay color r,g,b,a")

	gradientCmd.Flags().StringVar(&filterFlags.from, "from", "", "Start color r,g,b,a")
	gradientCmd.Flags().StringVar(&filterFlags.to, "to", "", "End color r,g,b,a")

	bandsCmd.Flags().StringVar(&filterFlags.colors, "colors", "", "Band colors r,g,b,a;r,g,b,a;...")

	for _, c := range []*cobra.Command{gradientCmd, bandsCmd} {
		c.Flags().StringVar(&filterFlags.direction, "direction", "horizontal", "horizontal or vertical")
	}

	rootCmd.AddCommand(adjustCmd, patternCmd, gradientCmd, bandsCmd, edgesCmd, saveCmd, batchCmd)
}

// adjustSpec builds a Spec holding only the flags set on the command line.
func adjustSpec(c *cobra.Command) *adjust.Spec {
	s := &adjust.Spec{}
	f := c.Flags()
	if f.Changed("brighten") {
		s.Brighten = &adjustFlags.brighten
	}
	if f.Changed("blur") {
		s.Blur = &adjustFlags.blur
	}
	if f.Changed("hue") {
		s.Hue = &adjustFlags.hue
	}
	if f.Changed("grayscale") {
		s.Grayscale = &adjustFlags.grayscale
	}
	if f.Changed("contrast") {
		s.Contrast = &adjustFlags.contrast
	}
	if f.Changed("invert") {
		s.Invert = &adjustFlags.invert
	}
	return s
}

func readInput(path string) (core.Input, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if base64In {
		return core.Base64Input(data), nil
	}
	return core.RawInput(data), nil
}

func load(path string) (*imagefilter.ImageProcess, error) {
	in, err := readInput(path)
	if err != nil {
		return nil, err
	}
	ip, err := proc.Load(in)
	if err != nil {
		return nil, err
	}
	return ip.WithName(path), nil
}

func writeResult(res *core.ProcessingResult) error {
	var out []byte
	if base64Out {
		out = []byte(res.Base64() + "\n")
	} else {
		out = res.Bytes()
	}

	if outputPath == "-" {
		_, err := os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"path":     outputPath,
		"bytes":    res.Len(),
		"duration": res.ProcessingTime(),
	}).Info("result written")
	return nil
}

func runFilter(ctx context.Context, path string, req filters.Request) error {
	ip, err := load(path)
	if err != nil {
		return err
	}
	res, err := ip.ComputeFilter(ctx, req)
	if err != nil {
		return err
	}
	return writeResult(res)
}

func runAdjust(c *cobra.Command, args []string) error {
	ip, err := load(args[0])
	if err != nil {
		return err
	}
	res, err := ip.ComputeAdjustments(c.Context(), adjustSpec(c))
	if err != nil {
		return err
	}
	return writeResult(res)
}

func runPattern(c *cobra.Command, args []string) error {
	p, err := filters.ParsePattern(filterFlags.pattern)
	if err != nil {
		return err
	}
	color, err := parseColorOr(filterFlags.color, filters.DefaultPatternColor)
	if err != nil {
		return err
	}
	return runFilter(c.Context(), args[0], filters.PixelPatternRequest{Pattern: p, Color: color})
}

func runGradient(c *cobra.Command, args []string) error {
	d, err := filters.ParseDirection(filterFlags.direction)
	if err != nil {
		return err
	}
	from, err := parseColorOr(filterFlags.from, filters.DefaultGradientFrom)
	if err != nil {
		return err
	}
	to, err := parseColorOr(filterFlags.to, filters.DefaultGradientTo)
	if err != nil {
		return err
	}
	return runFilter(c.Context(), args[0], filters.GradientRequest{From: from, To: to, Direction: d})
}

func runBands(c *cobra.Command, args []string) error {
	d, err := filters.ParseDirection(filterFlags.direction)
	if err != nil {
		return err
	}
	colors := filters.DefaultBandPalette()
	if filterFlags.colors != "" {
		if colors, err = parseColors(filterFlags.colors); err != nil {
			return err
		}
	}
	return runFilter(c.Context(), args[0], filters.ColorBandRequest{Colors: colors, Direction: d})
}

func runEdges(c *cobra.Command, args []string) error {
	return runFilter(c.Context(), args[0], filters.EdgeGradientRequest{})
}

func runSave(c *cobra.Command, args []string) error {
	ip, err := load(args[0])
	if err != nil {
		return err
	}
	path, err := ip.Save(c.Context(), args[1])
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runBatch(c *cobra.Command, args []string) error {
	dest, inputs := args[0], args[1:]
	spec := adjustSpec(c)

	jobs := make([]imagefilter.Job, 0, len(inputs))
	for _, path := range inputs {
		in, err := readInput(path)
		if err != nil {
			return err
		}
		jobs = append(jobs, imagefilter.Job{Name: path, Input: in, Adjust: spec})
	}

	failed := 0
	for _, r := range proc.Batch(c.Context(), jobs) {
		entry := log.WithField("input", r.Name).WithField("duration", r.Duration)
		if r.Err != nil {
			failed++
			entry.WithError(r.Err).Error("job failed")
			continue
		}
		out := filepath.Join(dest, fmt.Sprintf("%03d.png", r.Index))
		if err := os.WriteFile(out, r.Result.Bytes(), 0o644); err != nil {
			return err
		}
		entry.WithField("output", out).Info("job done")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(jobs))
	}
	return nil
}
