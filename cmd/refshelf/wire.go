package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/refshelf/internal/adapters/driven/config/file"
	"github.com/custodia-labs/refshelf/internal/adapters/driven/imageproc"
	"github.com/custodia-labs/refshelf/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/refshelf/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/refshelf/internal/adapters/driving/cli"
	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/services"
	"github.com/custodia-labs/refshelf/internal/extractors/ocr"
	"github.com/custodia-labs/refshelf/internal/extractors/pdf"
	"github.com/custodia-labs/refshelf/internal/extractors/plaintext"
	"github.com/custodia-labs/refshelf/internal/logger"
)

// pingTimeout bounds the startup reachability check of the model server.
const pingTimeout = 2 * time.Second

// bootstrap loads configuration and wires every adapter into the services
// the commands use.
func bootstrap(ctx context.Context, configDir string) (*cli.Services, func() error, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, nil, err
	}
	baseDir := filepath.Dir(configStore.Path())

	settings, err := file.LoadSettings(configStore)
	if err != nil {
		return nil, nil, err
	}

	prompts, err := file.NewPromptStore(filepath.Join(baseDir, "prompts"))
	if err != nil {
		return nil, nil, err
	}
	if err := file.ApplyPrompts(prompts, &settings.Classify); err != nil {
		return nil, nil, err
	}

	if settings.DataDir == "" {
		settings.DataDir = filepath.Join(baseDir, "data")
	}
	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	svc, err := wireServices(ctx, settings, store)
	if err != nil {
		return nil, nil, errors.Join(err, store.Close())
	}
	svc.LogFile = filepath.Join(baseDir, "logs", "watch.log")

	logger.Debug("config %s, store %s, model %s at %s",
		configStore.Path(), store.Path(), settings.Model.Model, settings.Model.BaseURL)

	return svc, store.Close, nil
}

func wireServices(ctx context.Context, settings domain.Settings, store *sqlite.Store) (*cli.Services, error) {
	vocab := settings.VocabularyOrDefault()
	hierarchy := domain.DefaultHierarchy()
	records := store.RecordStore()
	images := imageproc.New("")

	dedup, err := services.NewDedupIndex(ctx, store.HashStore(), images, settings.Ingest.HashDistance)
	if err != nil {
		return nil, err
	}
	carousel, err := services.NewCarouselCache(ctx, store.PostContextStore())
	if err != nil {
		return nil, err
	}

	model := ollama.NewVisionService(ollama.Config{
		BaseURL:           settings.Model.BaseURL,
		Model:             settings.Model.Model,
		TextTimeout:       settings.Model.TextTimeout,
		ImageTimeout:      settings.Model.ImageTimeout,
		RequestsPerMinute: settings.Model.RequestsPerMinute,
	})
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := model.Ping(pingCtx); err != nil {
		logger.Warn("classification service not reachable at %s: %v", settings.Model.BaseURL, err)
	}

	ingest, err := services.NewIngestService(services.IngestDeps{
		Store:       records,
		Dedup:       dedup,
		Carousel:    carousel,
		Classifier:  services.NewClassifier(model, vocab, hierarchy, settings.Classify, carousel),
		Reorganizer: services.NewReorganizer(settings.Organize, vocab),
		Images:      images,
		PDF:         pdf.New(settings.Tools.PDFCommand),
		OCR: ocr.New(ocr.Config{
			Command:   settings.Tools.OCRCommand,
			Languages: settings.Tools.OCRLanguages,
		}, images),
		Text: plaintext.New(),
	}, settings.Ingest)
	if err != nil {
		return nil, err
	}

	return &cli.Services{
		Ingestor:    ingest,
		Catalog:     services.NewCatalogService(records, vocab, hierarchy),
		Relink:      services.NewRelinker(records),
		WatchRoot:   settings.Watch.Root,
		WatchSettle: settings.Watch.Settle,
	}, nil
}
