package main

import (
	"context"
	"flag"
	"os"

	"ikms-rag-be/internal/bootstrap"
	"ikms-rag-be/internal/config"
	"ikms-rag-be/internal/dto"
	"ikms-rag-be/pkg/database"
	"ikms-rag-be/pkg/ingestion"

	"github.com/fatih/color"
)

// index loads .txt, .md and .pdf files and stores their chunks synchronously
func main() {
	path := flag.String("path", "docs", "file or directory to index")
	flag.Parse()

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Unable to connect to GORM DB: %v", err)
		os.Exit(1)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	docs, err := load(*path)
	if err != nil {
		color.Red("Failed to load %s: %v", *path, err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		color.Yellow("No supported documents under %s", *path)
		return
	}

	color.Cyan("Indexing %d document(s) from %s", len(docs), *path)

	ctx := context.Background()
	failed := 0
	for _, doc := range docs {
		msg := &dto.IndexDocumentMessage{Source: doc.Source}
		for _, p := range doc.Pages {
			msg.Pages = append(msg.Pages, dto.DocumentPage{Number: p.Number, Text: p.Text})
		}

		res, err := container.DocumentService.Index(ctx, msg)
		if err != nil {
			failed++
			color.Red("  ✗ %s: %v", doc.Source, err)
			continue
		}
		color.Green("  ✓ %s (%d chunks)", res.Source, res.Chunks)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func load(path string) ([]*ingestion.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return ingestion.LoadDir(path)
	}
	doc, err := ingestion.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return []*ingestion.Document{doc}, nil
}
