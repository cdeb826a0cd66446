package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"intake/internal/config"
	"intake/internal/ingest"
	"intake/internal/metrics"
	"intake/internal/metrics/datadog"
	"intake/internal/metrics/prompush"
	"intake/internal/oracle"
	"intake/internal/parser"
	csvparser "intake/internal/parser/csv"
	xlsxparser "intake/internal/parser/xlsx"
	"intake/internal/storage"

	// register all store backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "intake/internal/storage/all"
)

// main is the entry point for the ingestion binary. It loads the pipeline
// config, optionally initializes a metrics backend, parses the upload, and
// runs either the preview or the persist path.
func main() {
	var (
		cfgPath           string
		filePath          string
		mode              string
		previewRows       int
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/ingest.sample.json", "pipeline config JSON path")
	flag.StringVar(&filePath, "file", "", "upload file path (overrides source.file.path)")
	flag.StringVar(&mode, "mode", "preview", "run mode: preview | persist")
	flag.IntVar(&previewRows, "preview-rows", 0, "max preview rows (overrides runtime.preview_rows)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	f, err := os.Open(cfgPath)
	if err != nil {
		fatalf("open config: %v", err)
	}
	var p config.Pipeline
	err = json.NewDecoder(f).Decode(&p)
	f.Close()
	if err != nil {
		fatalf("decode config: %v", err)
	}

	issues := config.Validate(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintln(os.Stderr, iss)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	if mode != "preview" && mode != "persist" {
		fatalf("unknown mode %q (want preview or persist)", mode)
	}

	backend := buildMetricsBackend(metricsBackendFlg, pushGatewayURLFlg, p.Job, *verbose)
	if backend != nil {
		defer func() {
			if err := backend.Close(); err != nil {
				log.Printf("metrics: close/flush error: %v", err)
			}
		}()
	}

	if filePath == "" && p.Source.File != nil {
		filePath = p.Source.File.Path
	}
	if filePath == "" {
		fatalf("no upload file: pass -file or set source.file.path")
	}

	tab, err := readTable(filePath, p.Parser)
	if err != nil {
		fatalf("read upload: %v", err)
	}

	ctx := context.Background()
	start := time.Now()

	pipe := &ingest.Pipeline{
		Mapper:  buildMapper(p.Oracle),
		Logger:  log.Default(),
		Metrics: backend,
		Workers: p.Runtime.RepairWorkers,
	}

	if p.Storage.Kind != "" {
		store, err := storage.New(ctx, storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DSN})
		if err != nil {
			fatalf("open store: %v", err)
		}
		defer store.Close()
		pipe.Store = store
	}

	if *verbose {
		log.Printf("pipeline: file=%s parser=%s storage=%s mode=%s rows=%d",
			filePath, p.Parser.Kind, p.Storage.Kind, mode, len(tab.Rows))
	}

	switch mode {
	case "preview":
		limit := previewRows
		if limit <= 0 {
			limit = p.Runtime.PreviewRows
		}
		if limit <= 0 {
			limit = 20
		}
		out, err := pipe.Preview(ctx, tab, limit)
		if err != nil {
			log.Fatalf("preview: %v", err)
		}
		writeJSON(out)

	case "persist":
		out, err := pipe.Persist(ctx, tab)
		if err != nil {
			log.Fatalf("persist: %v", err)
		}
		writeJSON(out)
		if len(out.Failed) > 0 {
			log.Printf("persist completed with %d record failures", len(out.Failed))
		}
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// readTable parses the upload with the configured parser, falling back to
// the file extension when parser.kind is unset.
func readTable(path string, pc config.Parser) (parser.Table, error) {
	kind := pc.Kind
	if kind == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx", ".xlsm":
			kind = "xlsx"
		default:
			kind = "csv"
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return parser.Table{}, err
	}
	defer f.Close()

	switch kind {
	case "csv":
		return csvparser.Read(f, pc.Options)
	case "xlsx":
		return xlsxparser.Read(f, pc.Options)
	}
	return parser.Table{}, fmt.Errorf("unsupported parser kind %q", kind)
}

func buildMapper(oc config.Oracle) ingest.Mapper {
	if oc.URL == "" {
		return nil
	}
	return &oracle.Client{
		URL:     oc.URL,
		Token:   oc.Token(),
		Timeout: time.Duration(oc.TimeoutSeconds) * time.Second,
		Logger:  log.Default(),
	}
}

// buildMetricsBackend resolves the metrics backend by flag, then environment.
// Returns nil when metrics are disabled; the pipeline treats nil as nop.
func buildMetricsBackend(flagName, gwFlagURL, job string, verbose bool) metrics.Backend {
	name := flagName
	if name == "" {
		name = os.Getenv("METRICS_BACKEND")
	}
	if job == "" {
		job = "intake"
	}

	switch name {
	case "pushgateway":
		gwURL := gwFlagURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(prompush.Options{URL: gwURL, JobName: job})
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; metrics disabled", err)
			return nil
		}
		log.Printf("metrics: backend=pushgateway url=%s job=%s", gwURL, job)
		return b

	case "datadog":
		extraTags := datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName: job,
			Tags:    extraTags,
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; metrics disabled", err)
			return nil
		}
		log.Printf("metrics: backend=datadog job=%s tags=%v", job, extraTags)
		return b

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", name)
		}
		return nil
	}

	log.Printf("metrics: unknown backend %q; metrics disabled", name)
	return nil
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
