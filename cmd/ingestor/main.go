package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samirrijal/topomap/internal/adapters/postgres"
	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/usecases"
	"github.com/samirrijal/topomap/internal/pkg/config"
	"github.com/samirrijal/topomap/internal/pkg/logging"
	"github.com/samirrijal/topomap/internal/pkg/nodefile"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source  string        `json:"source"`
	Sources []SourceEntry `json:"sources"`
}

// SourceEntry is one node export. Exactly one of Path and URL is set.
type SourceEntry struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Path   string `json:"path,omitempty"`
	URL    string `json:"url,omitempty"`
	Format string `json:"format,omitempty"` // csv | geojson, detected from the name when empty
}

const batchSize = 500

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("topomap-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	slog.Info("topology ingestor starting", "sources", len(manifest.Sources), "manifest", manifest.Source)

	// Optional CLI arg: slug list
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	nodes := usecases.NewNodeService(postgres.NewNodeRepo(db))
	client := &http.Client{Timeout: 120 * time.Second}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent sources

	for _, src := range manifest.Sources {
		if len(slugFilter) > 0 && !slugFilter[src.Slug] {
			continue
		}

		wg.Add(1)
		go func(s SourceEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestSource(ctx, nodes, client, s); err != nil {
				slog.Error("ingest failed", "source", s.Slug, "error", err)
			}
		}(src)
	}

	wg.Wait()
	slog.Info("ingestion complete")
}

// ---------------------------------------------------------------------------
// Per-source ingestion
// ---------------------------------------------------------------------------

func ingestSource(ctx context.Context, nodes *usecases.NodeService, client *http.Client, src SourceEntry) error {
	log := slog.With("source", src.Slug)

	name := src.Path
	if name == "" {
		name = src.URL
	}
	format := nodefile.Format(src.Format)
	if format == "" {
		f, err := nodefile.Detect(name)
		if err != nil {
			return err
		}
		format = f
	}

	body, err := open(ctx, client, src)
	if err != nil {
		return err
	}
	defer body.Close()

	res, err := nodefile.Read(body, format)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}

	valid := res.Nodes[:0]
	for _, n := range res.Nodes {
		if !n.Location.Valid() {
			res.Skipped++
			continue
		}
		if n.Attributes == nil {
			n.Attributes = map[string]any{}
		}
		n.Attributes["source"] = src.Slug
		valid = append(valid, n)
	}
	log.Info("parsed node file", "file", name, "nodes", len(valid), "skipped", res.Skipped)

	total, err := importBatched(ctx, nodes, valid)
	if err != nil {
		return err
	}
	log.Info("source imported", "nodes", total)
	return nil
}

func open(ctx context.Context, client *http.Client, src SourceEntry) (io.ReadCloser, error) {
	if src.Path != "" {
		return os.Open(src.Path)
	}
	if src.URL == "" {
		return nil, fmt.Errorf("source %s has neither path nor url", src.Slug)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, src.URL)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func importBatched(ctx context.Context, nodes *usecases.NodeService, all []domain.TopologyNode) (int, error) {
	total := 0
	for start := 0; start < len(all); start += batchSize {
		end := min(start+batchSize, len(all))
		n, err := nodes.Import(ctx, all[start:end])
		if err != nil {
			return total, fmt.Errorf("batch at %d: %w", start, err)
		}
		total += n
	}
	return total, nil
}
