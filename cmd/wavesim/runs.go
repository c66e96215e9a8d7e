package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/wavesim/internal/analysis"
	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/export"
	"github.com/san-kum/wavesim/internal/storage"
	"github.com/san-kum/wavesim/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tGRID\tWORKERS\tSTEPS\tMEDIUM\tOUTCOME")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%d\tc=%.2f k=%.2f\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Size, run.Size,
			run.Workers,
			run.Steps,
			run.Medium.C, run.Medium.K,
			run.Outcome,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Trace, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, trace, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if trace.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("grid: %dx%d, c=%.3f k=%.3f\n", meta.Size, meta.Size, meta.Medium.C, meta.Medium.K)
	fmt.Printf("samples: %d\n\n", trace.Len())

	channels := []struct {
		caption string
		data    []float64
		mic     [2]int
	}{
		{"left microphone", trace.Left, meta.LeftMic},
		{"right microphone", trace.Right, meta.RightMic},
	}
	for _, ch := range channels {
		graph := asciigraph.Plot(ch.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s at (%d, %d)", ch.caption, ch.mic[0], ch.mic[1])),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	fmt.Println("stereo portrait (left vs right):")
	fmt.Println(analysis.StereoPortrait(trace.Left, trace.Right, 60, 20))

	if svgOut != "" {
		theme := viz.Themes[0]
		svg := export.TraceToSVG(trace.Left, trace.Right, 800, 300, string(theme.High), string(theme.Mic))
		if err := export.WriteFile(svgOut, svg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if trace.Len() < 4 {
		return fmt.Errorf("not enough samples to analyze")
	}
	rate := float64(meta.SampleRate)

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("sample rate: %d hz, samples: %d\n\n", meta.SampleRate, trace.Len())

	spectrum := analysis.PowerSpectrum(trace.Left)
	bins := len(spectrum)
	if bins > 400 {
		bins = 400
	}
	graph := asciigraph.Plot(spectrum[1:bins],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum, left, 0-%.0f hz", analysis.BinFrequency(bins, trace.Len(), rate))),
	)
	fmt.Println(graph)
	fmt.Println()

	for _, ch := range []struct {
		name string
		data []float64
	}{{"left", trace.Left}, {"right", trace.Right}} {
		freq, mag := analysis.DominantFrequency(ch.data, rate)
		fmt.Printf("%-5s dominant frequency: %.3f hz (magnitude %.1f)\n", ch.name, freq, mag)
	}
	fmt.Printf("stereo correlation: %.4f\n", analysis.Correlation(trace.Left, trace.Right))

	if len(meta.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		names := make([]string, 0, len(meta.Metrics))
		for name := range meta.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.6f\n", name, meta.Metrics[name])
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, trace, err := loadRun(args[0])
	if err != nil {
		return err
	}
	data := storage.NewExport(meta, trace)
	if exportOut == "" {
		return data.Write(os.Stdout)
	}
	if err := data.WriteFile(exportOut); err != nil {
		return err
	}
	fmt.Printf("exported %d samples to %s\n", trace.Len(), exportOut)
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PRESET\tDESCRIPTION")
		for _, name := range config.ListPresets() {
			fmt.Fprintf(w, "%s\t%s\n", name, config.PresetDescriptions[name])
		}
		return w.Flush()
	}

	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if presetSave != "" {
		if err := config.Save(presetSave, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s to %s\n", args[0], presetSave)
		return nil
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
