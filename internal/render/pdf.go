package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/vulnverified/nexus/internal/engine"
)

var disableConfigDir sync.Once

// PDF writes report to w as a PDF document.
func PDF(w io.Writer, report *engine.ScanReport) error {
	// pdfcpu would otherwise create a config directory on first use.
	disableConfigDir.Do(api.DisableConfigDir)

	data, err := json.Marshal(NewDocument(report))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if err := api.Create(nil, bytes.NewReader(data), w, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
