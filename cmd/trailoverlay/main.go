package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
)

func main() {
	parser := argparse.NewParser("trailoverlay", "Replay recorded detections through the trail overlay engine")
	input := parser.String("i", "input", &argparse.Options{Help: "Detections JSON file", Required: true})
	output := parser.String("o", "output", &argparse.Options{Help: "Report JSON file. Empty means stdout", Required: false, Default: ""})
	configPath := parser.String("c", "config", &argparse.Options{Help: "Overlay config JSON file", Required: false, Default: ""})
	labelFile := parser.String("l", "labels", &argparse.Options{Help: "Label file, one class per line", Required: false, Default: ""})
	inferConfig := parser.String("", "infer-config", &argparse.Options{Help: "nvinfer config with labelfile-path", Required: false, Default: ""})
	pngDir := parser.String("", "png-dir", &argparse.Options{Help: "Directory for rendered frames", Required: false, Default: ""})
	background := parser.String("", "background", &argparse.Options{Help: "Image drawn under every rendered frame", Required: false, Default: ""})
	fontFile := parser.String("", "font", &argparse.Options{Help: "TrueType font for rendered labels", Required: false, Default: ""})
	muxWidth := parser.Int("", "mux-width", &argparse.Options{Help: "Frame width", Required: false, Default: 1920})
	muxHeight := parser.Int("", "mux-height", &argparse.Options{Help: "Frame height", Required: false, Default: 1080})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	opts := replayOptions{
		InputPath:       *input,
		OutputPath:      *output,
		ConfigPath:      *configPath,
		LabelFilePath:   *labelFile,
		InferConfigPath: *inferConfig,
		PNGDir:          *pngDir,
		FontPath:        *fontFile,
		BackgroundPath:  *background,
		Width:           *muxWidth,
		Height:          *muxHeight,
	}
	if err := runReplay(logger, opts, os.Stdout); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
