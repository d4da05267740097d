package main

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/LdDl/trail-osd/render"
	"github.com/LdDl/trail-osd/trails"
	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
)

type replayOptions struct {
	InputPath       string
	OutputPath      string
	ConfigPath      string
	LabelFilePath   string
	InferConfigPath string
	PNGDir          string
	FontPath        string
	BackgroundPath  string
	Width           int
	Height          int
}

// recording is the input file: batches as the muxer would have delivered them
type recording struct {
	Sources int             `json:"sources"`
	Batches []*trails.Batch `json:"batches"`
}

type classInfo struct {
	ClassID int    `json:"class_id"`
	Label   string `json:"label"`
	Color   string `json:"color"`
}

type report struct {
	Stats   trails.BatchStats           `json:"stats"`
	Classes []classInfo                 `json:"classes"`
	Trails  []trails.TrajectorySnapshot `json:"trails"`
}

func loadRecording(path string) (*recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read detections")
	}
	rec := &recording{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, errors.Wrap(err, "Can't parse detections")
	}
	return rec, nil
}

func loadSettings(opts replayOptions) (trails.Config, error) {
	cfg := trails.DefaultConfig()
	if opts.ConfigPath != "" {
		var err error
		cfg, err = trails.LoadConfig(opts.ConfigPath)
		if err != nil {
			return cfg, err
		}
	}
	if opts.LabelFilePath != "" {
		cfg.LabelFilePath = opts.LabelFilePath
	}
	if opts.InferConfigPath != "" {
		cfg.InferConfigPath = opts.InferConfigPath
	}
	return cfg, nil
}

func runReplay(logger logs.Log, opts replayOptions, stdout io.Writer) error {
	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}
	labels, err := cfg.LoadClassLabels()
	if err != nil {
		return errors.Wrap(err, "Can't build color table")
	}
	colors := trails.BuildColorTable(labels, cfg.ColorTableOptions()...)
	logger.Infof("Loaded %d classes", colors.Len())

	rec, err := loadRecording(opts.InputPath)
	if err != nil {
		return err
	}
	if cfg.NumSources == 0 {
		cfg.NumSources = rec.Sources
	}

	pool := trails.NewMemoryPool(cfg.MaxUnitsPerFrame)
	engine, err := trails.NewEngine(logger, colors, pool, cfg)
	if err != nil {
		return err
	}

	var background image.Image
	if opts.PNGDir != "" {
		if err := os.MkdirAll(opts.PNGDir, 0755); err != nil {
			return errors.Wrap(err, "Can't create png directory")
		}
		if opts.BackgroundPath != "" {
			background, err = render.LoadBackground(opts.BackgroundPath)
			if err != nil {
				return err
			}
		}
	}

	total := trails.BatchStats{}
	for _, batch := range rec.Batches {
		total.Add(engine.ProcessBatch(batch))
		if batch == nil {
			continue
		}
		for _, frame := range batch.Frames {
			if frame == nil {
				continue
			}
			if opts.PNGDir != "" {
				if err := renderFrame(opts, background, frame, pool.Committed(frame.StreamID, frame.FrameNumber)); err != nil {
					return err
				}
			}
			pool.Release(frame.StreamID, frame.FrameNumber)
		}
	}
	logger.Infof("Processed %d frames (%d skipped), %d trails alive", total.Frames, total.SkippedFrames, engine.Store().Len())

	rep := report{
		Stats:   total,
		Classes: make([]classInfo, colors.Len()),
		Trails:  engine.Store().Snapshot(),
	}
	for i := range rep.Classes {
		rep.Classes[i] = classInfo{ClassID: i, Label: colors.Label(i), Color: colors.Hex(i)}
	}
	return writeReport(opts.OutputPath, rep, stdout)
}

func renderFrame(opts replayOptions, background image.Image, frame *trails.FrameMeta, units []*trails.DisplayUnit) error {
	canvas := render.NewCanvas(opts.Width, opts.Height)
	canvas.Clear(trails.RGBA{A: 1})
	if background != nil {
		canvas.DrawBackground(background)
	}
	if opts.FontPath != "" {
		if err := canvas.SetFontFile(opts.FontPath); err != nil {
			return err
		}
	}
	if err := canvas.DrawFrame(frame, units); err != nil {
		return err
	}
	name := fmt.Sprintf("stream%02d_frame%06d.png", frame.StreamID, frame.FrameNumber)
	return canvas.SavePNG(filepath.Join(opts.PNGDir, name))
}

func writeReport(path string, rep report, stdout io.Writer) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Can't encode report")
	}
	if path == "" {
		_, err = stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "Can't write report '%s'", path)
	}
	return nil
}
