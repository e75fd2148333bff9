// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is a one-shot command line client of the video generation
// service. It submits text with the chosen styles, renders the synthesized
// progress on the terminal and writes the resulting video to disk under a
// file name derived from the title.
//
// Usage:
//
//	generate -text "A cat sat. It purred." -voice friendly -image anime -out videos
//	generate -file story.txt -title "My story"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jaycherian/gcp-go-video-generator/internal/cloud"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/model"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/services"
	"github.com/jaycherian/gcp-go-video-generator/internal/core/workflow"
	"github.com/jaycherian/gcp-go-video-generator/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	text       string
	file       string
	voice      string
	image      string
	title      string
	out        string
	configFile string
	endpoint   string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.text, "text", "", "Text to narrate and illustrate")
	fs.StringVar(&o.file, "file", "", "Read the text from this file instead of -text")
	fs.StringVar(&o.voice, "voice", string(model.DefaultVoiceStyle), "Voice style: "+joinStyles(model.VoiceStyles()))
	fs.StringVar(&o.image, "image", string(model.DefaultImageStyle), "Image style: "+joinStyles(model.ImageStyles()))
	fs.StringVar(&o.title, "title", "", "Title used for the file name; defaults to the first sentence")
	fs.StringVar(&o.out, "out", ".", "Directory that receives the video")
	fs.StringVar(&o.configFile, "config", "", "TOML configuration file; defaults to the GCP_CONFIG_PREFIX/GCP_RUNTIME files")
	fs.StringVar(&o.endpoint, "endpoint", "", "Override the generation endpoint URL")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", o.file, err)
		}
		o.text = string(data)
	}
	return o, nil
}

func joinStyles[T ~string](styles []T) string {
	out := make([]string, len(styles))
	for i, s := range styles {
		out[i] = string(s)
	}
	return strings.Join(out, ", ")
}

func loadConfig(o *options) (*cloud.Config, error) {
	config := cloud.NewConfig()
	if o.configFile != "" {
		if err := cloud.LoadConfigFile(o.configFile, config); err != nil {
			return nil, err
		}
	} else if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	if o.endpoint != "" {
		config.Generator.Endpoint = o.endpoint
	}
	return config, nil
}

// progressPrinter renders one line per visible change of the run.
type progressPrinter struct {
	w     io.Writer
	stage string
	pct   float64
}

func (p *progressPrinter) observe(s model.Snapshot) {
	if s.Stage == nil || s.Progress == nil {
		return
	}
	if *s.Stage == p.stage && *s.Progress == p.pct {
		return
	}
	p.stage, p.pct = *s.Stage, *s.Progress
	fmt.Fprintf(p.w, "[%3.0f%%] %s\n", p.pct, p.stage)
}

// run executes one generation and writes the video into the output directory.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	config, err := loadConfig(o)
	if err != nil {
		return err
	}
	closeLog, err := telemetry.SetupLogging(stderr, config.Telemetry.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	req := model.NewGenerationRequest(o.text, model.VoiceStyle(o.voice), model.ImageStyle(o.image))
	if err := req.Validate(); err != nil {
		return err
	}

	clients, err := cloud.NewCloudServiceClients(ctx, config, nil)
	if err != nil {
		return err
	}
	defer clients.Close()

	store := services.NewResourceStore()
	controller := services.NewGenerationController(
		workflow.NewVideoGenerationWorkflow(clients, 0),
		store,
		services.TimelineCadence{
			StageDelay: time.Duration(config.Timeline.StageDelayMs) * time.Millisecond,
			StepDelay:  time.Duration(config.Timeline.StepDelayMs) * time.Millisecond,
		},
	)
	defer controller.Close()

	printer := &progressPrinter{w: stdout}
	controller.AddObserver(printer.observe)
	if clients.Events != nil {
		controller.AddObserver(clients.Events.Observe)
	}

	if err := controller.Submit(ctx, req); err != nil {
		return err
	}
	snap, err := controller.Wait(ctx)
	if err != nil {
		return fmt.Errorf("generation interrupted: %w", err)
	}
	if snap.Status != model.StatusSuccess {
		if snap.Error != nil {
			return errors.New(*snap.Error)
		}
		return fmt.Errorf("generation ended in state %s", snap.Status)
	}

	path, err := writeResult(controller, o)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Saved", path)
	return nil
}

// writeResult copies the video into the output directory.
func writeResult(controller *services.GenerationController, o *options) (string, error) {
	reader, _, title, err := controller.OpenResult()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", o.out, err)
	}
	path := filepath.Join(o.out, services.DeriveDownloadName(services.ResolveTitle(o.title, title)))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, file.Close()
}
