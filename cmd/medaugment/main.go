package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"medaugment/internal/logging"
	"medaugment/internal/telemetry"
	"medaugment/pkg/augment"
	"medaugment/pkg/config"
	"medaugment/pkg/data"
	"medaugment/pkg/orientation"
	"medaugment/pkg/tensor"
	"medaugment/pkg/transform"
	"medaugment/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := pflag.String("config", "", "YAML configuration file")
	channels := pflag.Int("channels", 0, "Number of channels of the synthetic volume")
	depth := pflag.Int("depth", 0, "Depth of the synthetic volume")
	height := pflag.Int("height", 0, "Height of the synthetic volume")
	width := pflag.Int("width", 0, "Width of the synthetic volume")
	probability := pflag.Float64P("probability", "p", -1, "Probability that each transform is applied")
	seed := pflag.Uint64("seed", 0, "Seed for reproducible skip decisions (0 = random)")
	flipAxes := pflag.IntSlice("flip", nil, "Spatial axes to flip (0 = depth, 1 = height, 2 = width)")
	previewDir := pflag.String("preview-dir", "", "Directory for JPEG previews of the last result")
	logLevel := pflag.String("log-level", "", "Log level (debug, info, warn, error)")
	metricsPort := pflag.Int("metrics-port", -1, "Serve Prometheus metrics on this port (0 disables)")
	runs := pflag.Int("runs", 100, "Number of times the pipeline is invoked")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags take precedence over the configuration file
	if *channels > 0 {
		cfg.Volume.Channels = *channels
	}
	if *depth > 0 {
		cfg.Volume.Depth = *depth
	}
	if *height > 0 {
		cfg.Volume.Height = *height
	}
	if *width > 0 {
		cfg.Volume.Width = *width
	}
	if *probability >= 0 {
		cfg.Augmentation.Probability = *probability
	}
	if pflag.CommandLine.Changed("seed") {
		cfg.Augmentation.Seed = *seed
	}
	if len(*flipAxes) > 0 {
		cfg.Augmentation.FlipAxes = *flipAxes
	}
	if *previewDir != "" {
		cfg.Output.PreviewDir = *previewDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *metricsPort >= 0 {
		cfg.Metrics.Port = *metricsPort
	}
	if *runs <= 0 {
		pflag.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.Configure(logging.Options{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON})
	logger := logging.L()

	metrics, err := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}
	if cfg.Metrics.Port != 0 {
		telemetry.Expose(cfg.Metrics.Port)
		logger.Info("serving metrics", "port", cfg.Metrics.Port)
	}

	mode, err := transform.ParseInterpolation(cfg.Augmentation.Interpolation)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	tally := &outcomeTally{next: metrics, counts: map[string]map[string]int{}}
	pipeline, err := buildPipeline(cfg, tally)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	volume := syntheticVolume(cfg)

	if cfg.Output.Verbose {
		fmt.Println("================================")
		fmt.Println("MEDAUGMENT: PROBABILISTIC AUGMENTATION OF 4D MEDICAL VOLUMES")
		fmt.Println("================================")
		fmt.Printf("Volume: %v\n", volume.Shape)
		fmt.Printf("Probability: %.2f  Interpolation: %s  Flip axes: %v\n",
			cfg.Augmentation.Probability, mode, cfg.Augmentation.FlipAxes)
	}

	ctx := context.Background()
	means := make([]float64, 0, *runs)
	var last transform.Output
	startTime := time.Now()
	for i := 0; i < *runs; i++ {
		out, err := pipeline.Invoke(ctx, transform.FromTensor(volume))
		if err != nil {
			log.Fatalf("Run %d failed: %v", i, err)
		}
		means = append(means, stat.Mean(out.Tensor().Data, nil))
		last = out
	}
	elapsed := time.Since(startTime)

	mean, std := stat.MeanStdDev(means, nil)
	fmt.Printf("\nCompleted %d runs in %.3f seconds\n", *runs, elapsed.Seconds())
	for _, step := range pipeline.compose.Steps() {
		fmt.Printf("- %s: applied %d, skipped %d\n", step.Name(),
			tally.counts[step.Name()]["applied"], tally.counts[step.Name()]["skipped"])
	}
	if *runs > 1 {
		fmt.Printf("Per-run mean intensity: %.4f ± %.4f\n", mean, std)
	} else {
		fmt.Printf("Mean intensity: %.4f\n", mean)
	}

	if cfg.Output.PreviewDir != "" {
		if err := savePreview(last.Tensor(), cfg.Output.PreviewDir); err != nil {
			log.Printf("Warning: Failed to save preview: %v", err)
		}
	}
}

// outcomeTally counts outcomes per transform before handing them on to the metrics
type outcomeTally struct {
	next   transform.Observer
	counts map[string]map[string]int
}

func (t *outcomeTally) ObserveInvocation(name, outcome string, seconds float64) {
	if t.counts[name] == nil {
		t.counts[name] = map[string]int{}
	}
	t.counts[name][outcome]++
	t.next.ObserveInvocation(name, outcome, seconds)
}

type augmentPipeline struct {
	*transform.Invoker
	compose *transform.Compose
}

// buildPipeline composes flip and, when enabled, intensity rescaling. Each
// step draws its own skip decision; the composed pipeline always runs.
func buildPipeline(cfg *config.Config, obs transform.Observer) (*augmentPipeline, error) {
	stepOptions := func(name string, offset uint64) []transform.Option {
		opts := []transform.Option{
			transform.WithProbability(cfg.Augmentation.Probability),
			transform.WithName(name),
			transform.WithObserver(obs),
		}
		if cfg.Augmentation.Seed != 0 {
			opts = append(opts, transform.WithSeed(cfg.Augmentation.Seed+offset))
		}
		return opts
	}

	flip, err := augment.NewFlip(cfg.Augmentation.FlipAxes...)
	if err != nil {
		return nil, err
	}
	flipStep, err := transform.NewInvoker(flip, stepOptions("flip", 0)...)
	if err != nil {
		return nil, err
	}
	steps := []*transform.Invoker{flipStep}

	if r := cfg.Augmentation.Rescale; r.Enabled {
		rescale, err := augment.NewRescaleIntensity(r.OutMin, r.OutMax)
		if err != nil {
			return nil, err
		}
		rescaleStep, err := transform.NewInvoker(rescale, stepOptions("rescale_intensity", 1)...)
		if err != nil {
			return nil, err
		}
		steps = append(steps, rescaleStep)
	}

	compose := transform.NewCompose(steps...)
	inv, err := transform.NewInvoker(compose, transform.WithName("pipeline"), transform.WithObserver(obs))
	if err != nil {
		return nil, err
	}
	return &augmentPipeline{Invoker: inv, compose: compose}, nil
}

// noiseSeedOffset keeps the noise stream apart from the per-step draw seeds
const noiseSeedOffset = 1 << 32

// syntheticVolume fills a (C, D, H, W) float32 volume with a bright ellipsoid
// on a noisy background, brighter for higher channels
func syntheticVolume(cfg *config.Config) *tensor.Tensor {
	v := cfg.Volume
	vol := tensor.Zeros(v.Channels, v.Depth, v.Height, v.Width)

	var src rand.Source
	if cfg.Augmentation.Seed != 0 {
		src = rand.NewSource(cfg.Augmentation.Seed + noiseSeedOffset)
	}
	noise := distuv.Normal{Mu: 0, Sigma: 0.05, Src: src}

	cz, cy, cx := float64(v.Depth-1)/2, float64(v.Height-1)/2, float64(v.Width-1)/2
	for c := 0; c < v.Channels; c++ {
		for z := 0; z < v.Depth; z++ {
			for y := 0; y < v.Height; y++ {
				for x := 0; x < v.Width; x++ {
					dz := (float64(z) - cz) / math.Max(cz, 1)
					dy := (float64(y) - cy) / math.Max(cy, 1)
					// Off-centre along x so that flips are visible
					dx := (float64(x) - cx*0.7) / math.Max(cx, 1)
					value := noise.Rand()
					if dz*dz+dy*dy+dx*dx < 0.5 {
						value += float64(c + 1)
					}
					vol.Set(value, c, z, y, x)
				}
			}
		}
	}
	return vol
}

// savePreview writes the middle slices of the first channel and logs the
// geometry the volume would carry in LPS space
func savePreview(t *tensor.Tensor, dir string) error {
	channel, err := t.Index(0)
	if err != nil {
		return err
	}
	img, err := data.NewImage(channel, data.Intensity)
	if err != nil {
		return err
	}

	itk, err := orientation.NibToITK(img.Data, img.Affine)
	if err != nil {
		return err
	}
	logging.L().Info("preview geometry", "size", itk.Size, "spacing", itk.Spacing,
		"origin", itk.Origin, "direction", itk.Direction)

	viewer, err := visualization.NewViewer(img)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	shape := img.SpatialShape()
	positions := map[string]int{"z": shape[0] / 2, "y": shape[1] / 2, "x": shape[2] / 2}
	for _, axis := range []string{"x", "y", "z"} {
		slice, err := viewer.ExtractSlice(axis, positions[axis])
		if err != nil {
			return err
		}
		filename := filepath.Join(dir, fmt.Sprintf("preview_%s.jpg", axis))
		if err := viewer.SaveSlice(slice, filename); err != nil {
			return err
		}
		fmt.Printf("Saved %s-axis preview to: %s\n", axis, filename)
	}
	return nil
}
