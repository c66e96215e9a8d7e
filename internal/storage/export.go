package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	RunMetadata
	Times []float64 `json:"times"`
	Left  []float64 `json:"left"`
	Right []float64 `json:"right"`
}

func NewExport(meta *RunMetadata, trace *Trace) ExportData {
	data := ExportData{RunMetadata: *meta}
	if trace != nil {
		data.Times = trace.Times
		data.Left = trace.Left
		data.Right = trace.Right
	}
	return data
}

func (d ExportData) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(d)
}

func (d ExportData) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return d.Write(file)
}
