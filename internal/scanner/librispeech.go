package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	DefaultAudioExt = ".flac"
	TransSuffix     = ".trans.txt"
)

// Pair is one audio file joined with its transcription.
type Pair struct {
	ID         string
	AudioPath  string
	Transcript string
}

// MissingPolicy decides what happens to an audio file that has no transcript line.
type MissingPolicy int

const (
	// MissingDrop leaves the audio file out of the result.
	MissingDrop MissingPolicy = iota
	// MissingEmpty keeps the audio file with an empty transcript.
	MissingEmpty
)

func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return MissingDrop, nil
	case "empty":
		return MissingEmpty, nil
	default:
		return MissingDrop, fmt.Errorf("unknown missing policy %q", s)
	}
}

func (p MissingPolicy) String() string {
	if p == MissingEmpty {
		return "empty"
	}
	return "drop"
}

type Options struct {
	// AudioExt is matched case-sensitively against the end of the file name.
	AudioExt string
	Naming   Naming
	Missing  MissingPolicy
	// OnMissing is called for every audio file left without a transcript line.
	OnMissing func(audioPath, transPath string)
}

func (o Options) withDefaults() Options {
	if o.AudioExt == "" {
		o.AudioExt = DefaultAudioExt
	}
	if o.Naming == nil {
		o.Naming = LibriSpeechNaming
	}
	return o
}

type Stats struct {
	AudioFiles      int `json:"audio_files"`
	Matched         int `json:"matched"`
	Missing         int `json:"missing"`
	Malformed       int `json:"malformed"`
	TranscriptFiles int `json:"transcript_files"`
}

type gatherer struct {
	opts  Options
	pairs []Pair
	stats Stats
	// transcript path -> key -> text; nil value for a file that does not exist
	cache map[string]map[string]string
}

// Gather walks rootDir and joins every audio file with the line of its sibling
// transcript file whose first token equals the audio file's stem.
// Pairs come back in walk order (lexical).
func Gather(rootDir string, opts Options) ([]Pair, Stats, error) {
	g := &gatherer{
		opts:  opts.withDefaults(),
		pairs: make([]Pair, 0, 256),
		cache: make(map[string]map[string]string),
	}

	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, g.stats, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), g.opts.AudioExt) {
			return nil
		}
		return g.add(path, info.Name())
	})
	if err != nil {
		return nil, g.stats, err
	}

	return g.pairs, g.stats, nil
}

func (g *gatherer) add(audioPath, name string) error {
	g.stats.AudioFiles++

	dir := filepath.Dir(audioPath)
	transPath := filepath.Join(dir, g.opts.Naming(dir))
	lines, err := g.transcripts(transPath)
	if err != nil {
		return err
	}

	id := strings.TrimSuffix(name, g.opts.AudioExt)
	text, ok := lines[id]
	if ok {
		g.stats.Matched++
	} else {
		g.stats.Missing++
		if g.opts.OnMissing != nil {
			g.opts.OnMissing(audioPath, transPath)
		}
		if g.opts.Missing == MissingDrop {
			return nil
		}
	}

	g.pairs = append(g.pairs, Pair{ID: id, AudioPath: audioPath, Transcript: text})
	return nil
}

func (g *gatherer) transcripts(transPath string) (map[string]string, error) {
	if lines, ok := g.cache[transPath]; ok {
		return lines, nil
	}

	lines, malformed, err := parseTransFile(transPath)
	if errors.Is(err, fs.ErrNotExist) {
		g.cache[transPath] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", transPath, err)
	}

	g.stats.TranscriptFiles++
	g.stats.Malformed += malformed
	g.cache[transPath] = lines
	return lines, nil
}

// parseTransFile reads "<id> <text>" lines. The first line for an id wins.
func parseTransFile(transPath string) (map[string]string, int, error) {
	f, err := os.Open(transPath)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	lines := make(map[string]string)
	malformed := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		id, text, ok := splitLine(line)
		if !ok {
			malformed++
			continue
		}
		if _, seen := lines[id]; !seen {
			lines[id] = text
		}
	}

	return lines, malformed, scanner.Err()
}

func splitLine(line string) (id, text string, ok bool) {
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return "", "", false
	}
	text = strings.TrimSpace(line[i:])
	if text == "" {
		return "", "", false
	}
	return line[:i], text, true
}

// CountFiles counts audio files under rootDir without reading transcripts.
func CountFiles(rootDir, audioExt string) (int, error) {
	if audioExt == "" {
		audioExt = DefaultAudioExt
	}
	count := 0
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), audioExt) {
			count++
		}
		return nil
	})
	return count, err
}
