package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/wavesim/internal/audio"
	"github.com/san-kum/wavesim/internal/experiment"
	"github.com/san-kum/wavesim/internal/export"
	"github.com/san-kum/wavesim/internal/storage"
	"github.com/san-kum/wavesim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	var opts []experiment.Option
	var sink *audio.WAVSink
	if cfg.Output != "" {
		sink, err = audio.NewWAVSink(cfg.Output, cfg.SampleRate)
		if err != nil {
			return err
		}
		opts = append(opts, experiment.WithSink(sink))
	}
	sess, err := experiment.New(cfg, sessionName(), opts...)
	if err != nil {
		if sink != nil {
			sink.Close()
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s on a %dx%d grid with %d workers...\n", sess.Name(), cfg.Size, cfg.Size, cfg.Workers)
	res, runErr := sess.Run(ctx)
	if res == nil {
		return runErr
	}

	runID, err := st.Save(sess.Metadata(res), res.Trace)
	if err != nil {
		return errors.Join(runErr, err)
	}

	printResult(runID, res)
	if cfg.Output != "" {
		fmt.Printf("audio: %s\n", cfg.Output)
	}
	if svgOut != "" {
		frame, _ := sess.Frames().Latest()
		if err := export.WriteFile(svgOut, export.FrameToSVG(frame, viz.NewHeatmap(viz.Themes[0]), 6)); err != nil {
			return errors.Join(runErr, err)
		}
		fmt.Printf("field: %s\n", svgOut)
	}
	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("ticks") {
		cfg.Ticks = 0
	}
	if frameRate > 0 {
		cfg.FrameInterval = 1000 / frameRate
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	// the view owns the terminal, so logs go to a file
	logFile, err := os.OpenFile(filepath.Join(dataDir, "live.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	if err := setupLogging(logFile); err != nil {
		return err
	}

	var sinks audio.Tee
	if liveAudio {
		ls, err := audio.NewLiveSink(cfg.SampleRate)
		if err != nil {
			slog.Warn("live: audio output disabled", "error", err)
		} else {
			sinks = append(sinks, ls)
		}
	}
	if cfg.Output != "" {
		ws, err := audio.NewWAVSink(cfg.Output, cfg.SampleRate)
		if err != nil {
			sinks.Close()
			return err
		}
		sinks = append(sinks, ws)
	}

	var opts []experiment.Option
	if len(sinks) > 0 {
		opts = append(opts, experiment.WithSink(sinks))
	}
	sess, err := experiment.New(cfg, sessionName(), opts...)
	if err != nil {
		sinks.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		res *experiment.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := sess.Run(ctx)
		done <- outcome{res, err}
	}()

	interval := time.Duration(cfg.FrameInterval) * time.Millisecond
	viewErr := viz.Run(sess, cfg.Medium, interval)
	cancel()
	out := <-done

	if out.res == nil || out.res.Steps == 0 {
		return errors.Join(viewErr, out.err)
	}
	runID, err := st.Save(sess.Metadata(out.res), out.res.Trace)
	if err != nil {
		return errors.Join(viewErr, out.err, err)
	}
	printResult(runID, out.res)
	return errors.Join(viewErr, out.err)
}

func printResult(runID string, res *experiment.Result) {
	fmt.Printf("%s in %v\n", res.Outcome, res.Elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", res.Steps)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, res.Metrics[name])
	}
}
