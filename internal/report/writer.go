package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bl4ck0w1/dnsatlas/internal/graph"
	"github.com/bl4ck0w1/dnsatlas/pkg/models"
	"github.com/bl4ck0w1/dnsatlas/pkg/utils"
)

// Writer persists rendered reports under one output directory. Writes go
// through a temp file and rename so a crash never leaves a truncated
// report behind.
type Writer struct {
	outputDir string
	logger    *logrus.Logger
}

func NewWriter(outputDir string, logger *logrus.Logger) (*Writer, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if outputDir == "" {
		outputDir = "."
	}
	if err := utils.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Writer{outputDir: outputDir, logger: logger}, nil
}

func (w *Writer) WriteMarkdown(g *graph.Graph) (string, error) {
	md := (&MarkdownFormatter{}).Format(g)
	return w.write(g.Root(), "md", []byte(md))
}

func (w *Writer) WriteDot(g *graph.Graph) (string, error) {
	dot := (&DotFormatter{}).Format(g)
	return w.write(g.Root(), "dot", []byte(dot))
}

// jsonExport is the on-disk shape of a finished scan.
type jsonExport struct {
	Result models.ScanResult `json:"result"`
	Nodes  []graph.Node      `json:"nodes"`
	Edges  []graph.Edge      `json:"edges"`
}

func (w *Writer) WriteJSON(g *graph.Graph, result models.ScanResult) (string, error) {
	data, err := json.MarshalIndent(jsonExport{Result: result, Nodes: g.Nodes(), Edges: g.Edges()}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode scan export: %w", err)
	}
	return w.write(g.Root(), "json", data)
}

func (w *Writer) write(root, ext string, data []byte) (string, error) {
	name := fmt.Sprintf("%s_dns_map.%s", strings.ReplaceAll(root, ".", "_"), ext)
	path := filepath.Join(w.outputDir, name)
	if err := utils.SafeWriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s report: %w", ext, err)
	}
	w.logger.Infof("report written: %s", path)
	return path, nil
}
