// Command qrlocate locates the reference geometry of a QR-style symbol
// in image files and reports the four corner points.
package main

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"qrlocate"
	"qrlocate/binarizer"
	"qrlocate/locator"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		jsonOutput bool
		showSample bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "qrlocate <image-file> [image-file...]",
		Short: "Locate QR symbol reference points in images",
		Long: `qrlocate binarizes each image, searches it for the three finder
patterns and the alignment pattern of a QR-style symbol, and prints the
four reference corner points a sampling stage would use.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose)
			failed := 0
			for _, path := range args {
				if err := locateFile(cmd, log, path, jsonOutput, showSample); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit one JSON object per file")
	cmd.Flags().BoolVar(&showSample, "sample", false, "also rectify and print the sampled module grid")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the qrlocate version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qrlocate %s\n", version)
		},
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// report is the per-file output record.
type report struct {
	File              string         `json:"file"`
	TopLeft           qrlocate.Point `json:"topLeft"`
	TopRight          qrlocate.Point `json:"topRight"`
	BottomLeft        qrlocate.Point `json:"bottomLeft"`
	BottomRight       qrlocate.Point `json:"bottomRight"`
	FinderAverageSize float64        `json:"finderAverageSize"`
	AlignmentSize     float64        `json:"alignmentSize"`
}

func locateFile(cmd *cobra.Command, log *slog.Logger, path string, jsonOutput, showSample bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	log.Debug("decoded image", "file", path, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	matrix, err := binarizer.NewGlobalHistogram(binarizer.NewImageSource(img)).BlackMatrix()
	if err != nil {
		return fmt.Errorf("binarize: %w", err)
	}

	loc, err := locator.New().Locate(matrix)
	if err != nil {
		return err
	}
	log.Debug("located symbol", "file", path,
		"finderAverageSize", loc.FinderAverageSize, "alignmentSize", loc.AlignmentSize)

	out := cmd.OutOrStdout()
	r := report{
		File:              path,
		TopLeft:           loc.TopLeft,
		TopRight:          loc.TopRight,
		BottomLeft:        loc.BottomLeft,
		BottomRight:       loc.BottomRight,
		FinderAverageSize: loc.FinderAverageSize,
		AlignmentSize:     loc.AlignmentSize,
	}
	if jsonOutput {
		enc := json.NewEncoder(out)
		if err := enc.Encode(r); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%s:\n", path)
		fmt.Fprintf(out, "  top-left      (%.1f, %.1f)\n", r.TopLeft.X, r.TopLeft.Y)
		fmt.Fprintf(out, "  top-right     (%.1f, %.1f)\n", r.TopRight.X, r.TopRight.Y)
		fmt.Fprintf(out, "  bottom-left   (%.1f, %.1f)\n", r.BottomLeft.X, r.BottomLeft.Y)
		fmt.Fprintf(out, "  bottom-right  (%.1f, %.1f)\n", r.BottomRight.X, r.BottomRight.Y)
		fmt.Fprintf(out, "  finder size   %.2f px\n", r.FinderAverageSize)
		fmt.Fprintf(out, "  align size    %.2f px\n", r.AlignmentSize)
	}

	if showSample {
		bits, err := locator.SampleSymbol(matrix, loc)
		if err != nil {
			return fmt.Errorf("sample: %w", err)
		}
		fmt.Fprint(out, bits.String())
	}
	return nil
}
