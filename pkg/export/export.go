package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"followgraph/pkg/config"
	"followgraph/pkg/logger"
	"followgraph/pkg/models"
	"followgraph/pkg/storage"
)

const rowSeparator = "\r\n"

var (
	nodeHeader = []string{"id", "Label"}
	edgeHeader = []string{"Source", "Target"}
)

// Tables holds the three rendered output tables
type Tables struct {
	Nodes     string
	Following string
	Followers string
}

// Render serializes the node and edge tables. Each table is a header row
// followed by one row per entry, rows joined by CRLF with no trailing
// separator.
func Render(nodes []models.Node, following, followers []models.Edge) (Tables, error) {
	nodeRows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		nodeRows = append(nodeRows, []string{n.ID, n.Label()})
	}

	nodesCSV, err := renderTable(nodeHeader, nodeRows)
	if err != nil {
		return Tables{}, fmt.Errorf("rendering nodes: %w", err)
	}
	followingCSV, err := renderTable(edgeHeader, edgeRows(following))
	if err != nil {
		return Tables{}, fmt.Errorf("rendering following: %w", err)
	}
	followersCSV, err := renderTable(edgeHeader, edgeRows(followers))
	if err != nil {
		return Tables{}, fmt.Errorf("rendering followers: %w", err)
	}

	return Tables{
		Nodes:     nodesCSV,
		Following: followingCSV,
		Followers: followersCSV,
	}, nil
}

func edgeRows(edges []models.Edge) [][]string {
	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []string{e.Source, e.Target})
	}
	return rows
}

func renderTable(header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}

	return string(bytes.TrimSuffix(buf.Bytes(), []byte(rowSeparator))), nil
}

// Writer writes rendered tables into the output directory
type Writer struct {
	files  *storage.Manager
	names  config.OutputConfig
	logger logger.Logger
}

// NewWriter creates a writer for the configured output files
func NewWriter(cfg config.OutputConfig, log logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	files, err := storage.NewManager(cfg.Directory)
	if err != nil {
		return nil, err
	}
	return &Writer{files: files, names: cfg, logger: log}, nil
}

// Write replaces the three output files
func (w *Writer) Write(tables Tables) error {
	outputs := []struct {
		name string
		data string
	}{
		{w.names.NodesFile, tables.Nodes},
		{w.names.FollowingFile, tables.Following},
		{w.names.FollowersFile, tables.Followers},
	}

	for _, out := range outputs {
		if err := w.files.WriteBytes(out.name, []byte(out.data)); err != nil {
			return fmt.Errorf("writing %s: %w", out.name, err)
		}
		w.logger.DebugWithFields("Table written", map[string]interface{}{
			"path":  w.files.Path(out.name),
			"bytes": len(out.data),
		})
	}
	return nil
}

// Paths returns the full paths of the three output files
func (w *Writer) Paths() []string {
	return []string{
		w.files.Path(w.names.NodesFile),
		w.files.Path(w.names.FollowingFile),
		w.files.Path(w.names.FollowersFile),
	}
}
