// graph-import bulk-loads CSV data into a remote graph server.
//
// Nodes are read from a CSV whose header names the property keys. For
// relationships, --start-col and --end-col name the columns holding the
// endpoint key values; every other column becomes a relationship property.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-graphclient/pkg/batch"
	"github.com/dd0wney/cluso-graphclient/pkg/bulk"
	"github.com/dd0wney/cluso-graphclient/pkg/config"
	"github.com/dd0wney/cluso-graphclient/pkg/logging"
	"github.com/dd0wney/cluso-graphclient/pkg/transport"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	serverURL := flag.String("server", "", "Server data endpoint (overrides config)")
	nodesFile := flag.String("nodes", "", "Path to nodes CSV")
	relsFile := flag.String("rels", "", "Path to relationships CSV")
	labels := flag.String("labels", "", "Comma-separated node labels")
	mergeKeys := flag.String("merge-keys", "", "Comma-separated node merge keys (merge mode)")
	relType := flag.String("rel-type", "", "Relationship type")
	startLabel := flag.String("start-label", "", "Label of relationship start nodes")
	startKey := flag.String("start-key", "", "Property key matching start nodes")
	startCol := flag.String("start-col", "start", "CSV column holding start key values")
	endLabel := flag.String("end-label", "", "Label of relationship end nodes")
	endKey := flag.String("end-key", "", "Property key matching end nodes")
	endCol := flag.String("end-col", "end", "CSV column holding end key values")
	batchSize := flag.Int("batch", 0, "Chunk size (0 = config default)")
	merge := flag.Bool("merge", false, "Merge instead of create")
	unique := flag.Bool("unique", false, "Discard duplicate relationships before sending")
	createIndexes := flag.Bool("index", false, "Create indexes on merge keys before loading")
	flag.Parse()

	if *nodesFile == "" && *relsFile == "" {
		fmt.Println("Usage: graph-import --nodes nodes.csv --labels Person [--merge --merge-keys name]")
		fmt.Println("       graph-import --rels rels.csv --rel-type KNOWS \\")
		fmt.Println("           --start-label Person --start-key name --end-label Person --end-key name")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath, *serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewDefaultLogger()
	logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))

	conn, err := newConnection(cfg, logger)
	if err != nil {
		logger.Error("failed to set up transport", logging.Error(err))
		os.Exit(1)
	}

	size := *batchSize
	if size <= 0 {
		size = cfg.DefaultBatchSize
	}

	ctx := context.Background()

	if *nodesFile != "" {
		if *labels == "" {
			logger.Error("--labels is required with --nodes")
			os.Exit(1)
		}
		if err := importNodes(ctx, conn, logger, nodesParams{
			file:      *nodesFile,
			labels:    splitList(*labels),
			mergeKeys: splitList(*mergeKeys),
			batchSize: size,
			merge:     *merge,
			index:     *createIndexes,
		}); err != nil {
			logger.Error("node import failed", logging.Error(err))
			os.Exit(1)
		}
	}

	if *relsFile != "" {
		if *relType == "" || *startKey == "" || *endKey == "" {
			logger.Error("--rel-type, --start-key and --end-key are required with --rels")
			os.Exit(1)
		}
		if err := importRelationships(ctx, conn, logger, relsParams{
			file:      *relsFile,
			relType:   *relType,
			start:     bulk.NodeKey{Label: *startLabel, Keys: []string{*startKey}},
			end:       bulk.NodeKey{Label: *endLabel, Keys: []string{*endKey}},
			startCol:  *startCol,
			endCol:    *endCol,
			batchSize: size,
			merge:     *merge,
			unique:    *unique,
			index:     *createIndexes,
		}); err != nil {
			logger.Error("relationship import failed", logging.Error(err))
			os.Exit(1)
		}
	}
}

func loadConfig(path, serverOverride string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if serverOverride != "" {
		cfg.ServerURL = serverOverride
	}
	return cfg, cfg.Validate()
}

// newConnection wires config through the HTTP transport and batch runner into
// the Connection the bulk containers drain through.
func newConnection(cfg *config.Config, logger logging.Logger) (bulk.Connection, error) {
	opts := []transport.Option{transport.WithLogger(logger)}

	switch cfg.Auth.Scheme {
	case "token":
		opts = append(opts, transport.WithAuth(transport.NewStaticToken(cfg.Auth.Token)))
	case "jwt":
		signer, err := transport.NewJWTSigner(cfg.Auth.Secret, cfg.Auth.Subject, cfg.Auth.TTL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, transport.WithAuth(signer))
	}
	if cfg.Compression {
		opts = append(opts, transport.WithCompression())
	}
	if cfg.Timeout > 0 {
		opts = append(opts, transport.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	tr := transport.NewHTTPTransport(cfg.ServerURL, opts...)
	runner := batch.NewRunner(tr, batch.WithLogger(logger))
	return &runnerConnection{runner: runner}, nil
}

// runnerConnection executes one Cypher statement per call by posting a
// single-job batch.
type runnerConnection struct {
	runner *batch.Runner
}

func (c *runnerConnection) Run(ctx context.Context, statement string, parameters map[string]any) ([][]any, error) {
	b := batch.New()
	b.Cypher(statement, parameters).Raw()

	results, err := c.runner.Submit(ctx, b)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return tableRows(results[0].Content), nil
}

// tableRows extracts the data rows from a raw cypher reply body.
func tableRows(content any) [][]any {
	body, ok := content.(map[string]any)
	if !ok {
		return nil
	}
	data, ok := body["data"].([]any)
	if !ok {
		return nil
	}
	rows := make([][]any, 0, len(data))
	for _, row := range data {
		cells, ok := row.([]any)
		if !ok {
			continue
		}
		rows = append(rows, cells)
	}
	return rows
}

type nodesParams struct {
	file      string
	labels    []string
	mergeKeys []string
	batchSize int
	merge     bool
	index     bool
}

func importNodes(ctx context.Context, conn bulk.Connection, logger logging.Logger, p nodesParams) error {
	if p.merge && len(p.mergeKeys) == 0 {
		return fmt.Errorf("--merge-keys is required with --merge")
	}

	set := bulk.NewNodeSet(p.labels, p.mergeKeys, bulk.WithContainerLogger(logger))

	count, err := readCSV(p.file, func(header []string, record []string) error {
		props := make(map[string]any, len(header))
		for i, key := range header {
			if i >= len(record) || record[i] == "" {
				continue
			}
			props[key] = parseValue(record[i])
		}
		set.Add(props)
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("nodes read",
		logging.String("file", p.file),
		logging.Int("count", count))

	if p.index && len(p.mergeKeys) > 0 {
		if err := set.CreateIndex(ctx, conn); err != nil {
			return err
		}
	}

	started := time.Now()
	if p.merge {
		err = set.Merge(ctx, conn, p.batchSize)
	} else {
		err = set.Create(ctx, conn, p.batchSize)
	}
	if err != nil {
		return err
	}

	logger.Info("nodes loaded",
		logging.Int("count", count),
		logging.Latency(time.Since(started)))
	return nil
}

type relsParams struct {
	file       string
	relType    string
	start, end bulk.NodeKey
	startCol   string
	endCol     string
	batchSize  int
	merge      bool
	unique     bool
	index      bool
}

func importRelationships(ctx context.Context, conn bulk.Connection, logger logging.Logger, p relsParams) error {
	opts := []bulk.ContainerOption{bulk.WithContainerLogger(logger)}
	if p.unique {
		opts = append(opts, bulk.WithUnique())
	}
	set := bulk.NewRelationshipSet(p.relType, p.start, p.end, opts...)

	discarded := 0
	count, err := readCSV(p.file, func(header []string, record []string) error {
		var startVal, endVal any
		props := make(map[string]any)
		for i, key := range header {
			if i >= len(record) || record[i] == "" {
				continue
			}
			value := parseValue(record[i])
			switch key {
			case p.startCol:
				startVal = value
			case p.endCol:
				endVal = value
			default:
				props[key] = value
			}
		}
		if startVal == nil || endVal == nil {
			return fmt.Errorf("row missing %q or %q column", p.startCol, p.endCol)
		}

		added, err := set.AddRelationship(
			map[string]any{p.start.Keys[0]: startVal},
			map[string]any{p.end.Keys[0]: endVal},
			props)
		if err != nil {
			return err
		}
		if !added {
			discarded++
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("relationships read",
		logging.String("file", p.file),
		logging.Int("count", count),
		logging.Int("duplicates_discarded", discarded))

	if p.index {
		if err := set.CreateIndex(ctx, conn); err != nil {
			return err
		}
	}

	started := time.Now()
	if p.merge {
		err = set.Merge(ctx, conn, p.batchSize)
	} else {
		err = set.Create(ctx, conn, p.batchSize)
	}
	if err != nil {
		return err
	}

	logger.Info("relationships loaded",
		logging.Int("count", count-discarded),
		logging.Latency(time.Since(started)))
	return nil
}

// readCSV streams records through fn, returning how many rows were read.
func readCSV(filename string, fn func(header, record []string) error) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header of %s: %w", filename, err)
	}

	count := 0
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		if err := fn(header, record); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// parseValue keeps CSV cells typed: integers and floats become numbers,
// everything else stays a string.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
