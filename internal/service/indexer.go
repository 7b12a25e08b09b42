package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dataset-indexer/internal/dataset"
	"dataset-indexer/internal/scanner"
)

var ErrRoundTrip = errors.New("reloaded lists differ from gathered pairs")

type IndexOptions struct {
	DataDir        string
	AudioList      string
	TranscriptList string
	SampleSize     int
	Scan           scanner.Options
}

type Report struct {
	DataDir        string         `json:"data_dir"`
	AudioList      string         `json:"audio_list"`
	TranscriptList string         `json:"transcript_list"`
	Stats          scanner.Stats  `json:"stats"`
	Pairs          int            `json:"pairs"`
	Sample         []scanner.Pair `json:"sample"`
	Export         *ExportResult  `json:"export,omitempty"`
	Elapsed        string         `json:"elapsed"`
}

// Indexer runs gather → save → load → verify and, when an exporter is set,
// writes the verified pairs to the database.
type Indexer struct {
	opts     IndexOptions
	exporter *Exporter
}

func NewIndexer(opts IndexOptions, exporter *Exporter) *Indexer {
	if opts.AudioList == "" {
		opts.AudioList = dataset.DefaultAudioList
	}
	if opts.TranscriptList == "" {
		opts.TranscriptList = dataset.DefaultTranscriptList
	}
	return &Indexer{opts: opts, exporter: exporter}
}

func (ix *Indexer) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{
		DataDir:        ix.opts.DataDir,
		AudioList:      ix.opts.AudioList,
		TranscriptList: ix.opts.TranscriptList,
	}

	total, err := scanner.CountFiles(ix.opts.DataDir, ix.opts.Scan.AudioExt)
	if err != nil {
		return nil, fmt.Errorf("scan dir: %w", err)
	}
	log.Printf("Scanning %s: %d audio files (missing transcripts: %s)", ix.opts.DataDir, total, ix.opts.Scan.Missing)

	scanOpts := ix.opts.Scan
	onMissing := scanOpts.OnMissing
	scanOpts.OnMissing = func(audioPath, transPath string) {
		log.Printf("⚠ No transcript for %s in %s", audioPath, transPath)
		if onMissing != nil {
			onMissing(audioPath, transPath)
		}
	}

	pairs, stats, err := scanner.Gather(ix.opts.DataDir, scanOpts)
	if err != nil {
		return nil, fmt.Errorf("gather: %w", err)
	}
	rep.Stats = stats
	rep.Pairs = len(pairs)
	log.Printf("✓ Gathered %d pairs: matched=%d missing=%d malformed=%d transcript_files=%d",
		len(pairs), stats.Matched, stats.Missing, stats.Malformed, stats.TranscriptFiles)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := dataset.Save(pairs, ix.opts.AudioList, ix.opts.TranscriptList); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	log.Printf("✓ Saved %s and %s", ix.opts.AudioList, ix.opts.TranscriptList)

	loaded, err := dataset.LoadPairs(ix.opts.AudioList, ix.opts.TranscriptList)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := verify(pairs, loaded); err != nil {
		return nil, err
	}
	log.Printf("✓ Verified %d reloaded pairs", len(loaded))
	rep.Sample = sample(loaded, ix.opts.SampleSize)

	if ix.exporter != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := ix.exporter.Export(ctx, pairs)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		rep.Export = res
	}

	rep.Elapsed = time.Since(start).Round(time.Millisecond).String()
	return rep, nil
}

func verify(want, got []scanner.Pair) error {
	if len(want) != len(got) {
		return fmt.Errorf("%w: %d gathered, %d reloaded", ErrRoundTrip, len(want), len(got))
	}
	for i := range want {
		if want[i].AudioPath != got[i].AudioPath || want[i].Transcript != got[i].Transcript {
			return fmt.Errorf("%w: entry %d (%s)", ErrRoundTrip, i, want[i].AudioPath)
		}
	}
	return nil
}

func sample(pairs []scanner.Pair, n int) []scanner.Pair {
	if n <= 0 {
		return nil
	}
	if n > len(pairs) {
		n = len(pairs)
	}
	return pairs[:n]
}
