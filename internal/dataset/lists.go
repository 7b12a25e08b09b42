package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"dataset-indexer/internal/scanner"
)

const (
	DefaultAudioList      = "audio_files.txt"
	DefaultTranscriptList = "transcriptions.txt"
)

var (
	ErrEmbeddedNewline = errors.New("entry contains a line break")
	ErrLengthMismatch  = errors.New("audio and transcript lists differ in length")
)

// Save writes the pairs as two aligned list files, one entry per line.
func Save(pairs []scanner.Pair, audioPath, transcriptPath string) error {
	audio, transcripts := Split(pairs)
	return SaveLists(audio, transcripts, audioPath, transcriptPath)
}

// SaveLists writes both lists, replacing any existing files. Nothing is
// written when an entry would break the one-entry-per-line format.
func SaveLists(audio, transcripts []string, audioPath, transcriptPath string) error {
	if len(audio) != len(transcripts) {
		return fmt.Errorf("%w: %d audio, %d transcripts", ErrLengthMismatch, len(audio), len(transcripts))
	}
	if err := checkLines("audio", audio); err != nil {
		return err
	}
	if err := checkLines("transcript", transcripts); err != nil {
		return err
	}

	if err := writeLines(audioPath, audio); err != nil {
		return fmt.Errorf("write %s: %w", audioPath, err)
	}
	if err := writeLines(transcriptPath, transcripts); err != nil {
		return fmt.Errorf("write %s: %w", transcriptPath, err)
	}
	return nil
}

// LoadLists reads both list files back. Lengths are not compared.
func LoadLists(audioPath, transcriptPath string) ([]string, []string, error) {
	audio, err := readLines(audioPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", audioPath, err)
	}
	transcripts, err := readLines(transcriptPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", transcriptPath, err)
	}
	return audio, transcripts, nil
}

// LoadPairs reads both list files and zips them. The ID of each pair is the
// audio file name without its extension.
func LoadPairs(audioPath, transcriptPath string) ([]scanner.Pair, error) {
	audio, transcripts, err := LoadLists(audioPath, transcriptPath)
	if err != nil {
		return nil, err
	}
	if len(audio) != len(transcripts) {
		return nil, fmt.Errorf("%w: %d audio, %d transcripts", ErrLengthMismatch, len(audio), len(transcripts))
	}

	pairs := make([]scanner.Pair, len(audio))
	for i := range audio {
		name := filepath.Base(audio[i])
		pairs[i] = scanner.Pair{
			ID:         strings.TrimSuffix(name, filepath.Ext(name)),
			AudioPath:  audio[i],
			Transcript: transcripts[i],
		}
	}
	return pairs, nil
}

func Split(pairs []scanner.Pair) (audio, transcripts []string) {
	audio = make([]string, len(pairs))
	transcripts = make([]string, len(pairs))
	for i, p := range pairs {
		audio[i] = p.AudioPath
		transcripts[i] = p.Transcript
	}
	return audio, transcripts
}

func checkLines(kind string, lines []string) error {
	for i, s := range lines {
		if strings.ContainsAny(s, "\r\n") {
			return fmt.Errorf("%s entry %d: %w", kind, i, ErrEmbeddedNewline)
		}
	}
	return nil
}

// writeLines replaces path via a temp file in the same directory.
func writeLines(path string, lines []string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, 0o644)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	bw := bufio.NewWriterSize(tmp, 64*1024)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return fail(err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fail(err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRightFunc(sc.Text(), unicode.IsSpace))
	}
	return lines, sc.Err()
}
