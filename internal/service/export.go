package service

import (
	"context"
	"fmt"
	"log"

	"dataset-indexer/internal/audio"
	"dataset-indexer/internal/db"
	"dataset-indexer/internal/scanner"
)

// Store is the part of *db.DB the exporter writes through.
type Store interface {
	GetAllFilePaths(ctx context.Context) (map[string]bool, error)
	Insert(ctx context.Context, af *db.AudioFile) (int64, error)
}

type ExportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

type Exporter struct {
	store Store
	probe bool

	hashFile func(path string) (string, error)
	metadata func(ctx context.Context, path string) (*audio.Metadata, error)
}

// NewExporter returns an exporter writing to store. With probe set every new
// row also carries ffprobe metadata.
func NewExporter(store Store, probe bool) *Exporter {
	return &Exporter{
		store:    store,
		probe:    probe,
		hashFile: audio.MD5File,
		metadata: audio.GetMetadata,
	}
}

// Export inserts pairs whose path is not stored yet. The first failure stops it.
func (e *Exporter) Export(ctx context.Context, pairs []scanner.Pair) (*ExportResult, error) {
	existing, err := e.store.GetAllFilePaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("load paths: %w", err)
	}
	log.Printf("Found %d existing files in database", len(existing))

	res := &ExportResult{}
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if existing[p.AudioPath] {
			res.Skipped++
			continue
		}

		af, err := e.row(ctx, p)
		if err != nil {
			return res, err
		}
		if _, err := e.store.Insert(ctx, af); err != nil {
			return res, fmt.Errorf("insert %s: %w", p.AudioPath, err)
		}
		existing[p.AudioPath] = true
		res.Inserted++
	}

	log.Printf("✓ Export complete: inserted=%d skipped=%d", res.Inserted, res.Skipped)
	return res, nil
}

func (e *Exporter) row(ctx context.Context, p scanner.Pair) (*db.AudioFile, error) {
	hash, err := e.hashFile(p.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", p.AudioPath, err)
	}

	speaker, chapter := scanner.SpeakerChapter(p.AudioPath)
	af := &db.AudioFile{
		UserID:                speaker,
		ChapterID:             chapter,
		UtteranceID:           p.ID,
		FilePath:              p.AudioPath,
		FileHash:              hash,
		TranscriptionOriginal: p.Transcript,
	}

	if e.probe {
		meta, err := e.metadata(ctx, p.AudioPath)
		if err != nil {
			return nil, fmt.Errorf("metadata: %w", err)
		}
		af.DurationSec = meta.DurationSec
		af.AudioMetadata = meta.ToJSON()
	}
	return af, nil
}
