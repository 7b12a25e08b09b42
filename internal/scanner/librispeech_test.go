package scanner

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestGather_MatchesTranscriptLine(t *testing.T) {
	root := t.TempDir()
	chapter := filepath.Join(root, "19", "198")
	touch(t, filepath.Join(chapter, "utt1.flac"))
	write(t, filepath.Join(chapter, "19-198.trans.txt"), "utt0 first line\nutt1 hello world\n")

	pairs, stats, err := Gather(root, Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Transcript != "hello world" {
		t.Fatalf("transcript = %q, want %q", pairs[0].Transcript, "hello world")
	}
	if pairs[0].ID != "utt1" {
		t.Fatalf("id = %q, want utt1", pairs[0].ID)
	}
	if want := filepath.Join(chapter, "utt1.flac"); pairs[0].AudioPath != want {
		t.Fatalf("audio path = %q, want %q", pairs[0].AudioPath, want)
	}
	if stats.Matched != 1 || stats.TranscriptFiles != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestGather_VisitsAllDepthsAndIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	dirs := []string{
		filepath.Join(root, "a", "1"),
		filepath.Join(root, "b", "2"),
		filepath.Join(root, "deep", "x", "y", "c", "3"),
	}
	for _, d := range dirs {
		speaker, chapter := filepath.Base(filepath.Dir(d)), filepath.Base(d)
		touch(t, filepath.Join(d, "u.flac"))
		touch(t, filepath.Join(d, "u.wav"))
		touch(t, filepath.Join(d, "notes.txt"))
		write(t, filepath.Join(d, speaker+"-"+chapter+".trans.txt"), "u text for "+chapter+"\n")
	}

	pairs, stats, err := Gather(root, Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if stats.AudioFiles != 3 || len(pairs) != 3 {
		t.Fatalf("expected 3 audio files and pairs, got stats=%+v pairs=%d", stats, len(pairs))
	}
	want := []string{"text for 1", "text for 2", "text for 3"}
	for i, p := range pairs {
		if p.Transcript != want[i] {
			t.Fatalf("pair %d transcript = %q, want %q", i, p.Transcript, want[i])
		}
	}
}

func TestGather_FirstMatchWins(t *testing.T) {
	root := t.TempDir()
	d := filepath.Join(root, "7", "8")
	touch(t, filepath.Join(d, "utt.flac"))
	write(t, filepath.Join(d, "7-8.trans.txt"), "utt first\nutt second\n")

	pairs, _, err := Gather(root, Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Transcript != "first" {
		t.Fatalf("expected first line to win, got %+v", pairs)
	}
}

func TestGather_MissingDropKeepsAlignment(t *testing.T) {
	root := t.TempDir()
	d := filepath.Join(root, "1", "2")
	touch(t, filepath.Join(d, "a.flac"))
	touch(t, filepath.Join(d, "b.flac"))
	touch(t, filepath.Join(d, "c.flac"))
	write(t, filepath.Join(d, "1-2.trans.txt"), "a alpha\nc gamma\n")

	var missing []string
	pairs, stats, err := Gather(root, Options{
		OnMissing: func(audioPath, _ string) { missing = append(missing, filepath.Base(audioPath)) },
	})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].ID != "a" || pairs[0].Transcript != "alpha" || pairs[1].ID != "c" || pairs[1].Transcript != "gamma" {
		t.Fatalf("pairs out of alignment: %+v", pairs)
	}
	if stats.Missing != 1 || len(missing) != 1 || missing[0] != "b.flac" {
		t.Fatalf("expected b.flac reported missing, stats=%+v missing=%v", stats, missing)
	}
}

func TestGather_MissingEmptyKeepsAudio(t *testing.T) {
	root := t.TempDir()
	d := filepath.Join(root, "1", "2")
	touch(t, filepath.Join(d, "a.flac"))
	touch(t, filepath.Join(d, "b.flac"))
	write(t, filepath.Join(d, "1-2.trans.txt"), "a alpha\n")

	pairs, stats, err := Gather(root, Options{Missing: MissingEmpty})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[1].ID != "b" || pairs[1].Transcript != "" {
		t.Fatalf("expected b with empty transcript, got %+v", pairs[1])
	}
	if stats.Missing != 1 || stats.Matched != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestGather_NoTranscriptFile(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "1", "2", "a.flac"))

	pairs, stats, err := Gather(root, Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 0 || stats.Missing != 1 || stats.TranscriptFiles != 0 {
		t.Fatalf("unexpected result: pairs=%v stats=%+v", pairs, stats)
	}
}

func TestGather_EmptyDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "x", "readme.md"))

	pairs, stats, err := Gather(root, Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 0 || stats.AudioFiles != 0 {
		t.Fatalf("expected nothing, got pairs=%v stats=%+v", pairs, stats)
	}
}

func TestGather_MalformedLinesSkipped(t *testing.T) {
	root := t.TempDir()
	d := filepath.Join(root, "1", "2")
	touch(t, filepath.Join(d, "a.flac"))
	write(t, filepath.Join(d, "1-2.trans.txt"), "a\n\n   \nb bravo\na   alpha  text  \n")

	pairs, stats, err := Gather(root, Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Transcript != "alpha  text" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
	if stats.Malformed != 1 {
		t.Fatalf("malformed = %d, want 1", stats.Malformed)
	}
}

func TestGather_TabSeparatedKey(t *testing.T) {
	root := t.TempDir()
	d := filepath.Join(root, "1", "2")
	touch(t, filepath.Join(d, "a.flac"))
	write(t, filepath.Join(d, "1-2.trans.txt"), "a\tthe text\n")

	pairs, _, err := Gather(root, Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Transcript != "the text" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
}

func TestGather_CustomExtAndFixedNaming(t *testing.T) {
	root := t.TempDir()
	d := filepath.Join(root, "clips")
	touch(t, filepath.Join(d, "one.wav"))
	touch(t, filepath.Join(d, "two.flac"))
	write(t, filepath.Join(d, "text.txt"), "one uno\ntwo dos\n")

	pairs, _, err := Gather(root, Options{AudioExt: ".wav", Naming: FixedNaming("text.txt")})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 1 || pairs[0].ID != "one" || pairs[0].Transcript != "uno" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
}

func TestGather_ExtIsCaseSensitive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "1", "2", "A.FLAC"))

	pairs, stats, err := Gather(root, Options{Missing: MissingEmpty})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 0 || stats.AudioFiles != 0 {
		t.Fatalf("expected upper-case suffix to be ignored, got %+v", pairs)
	}
}

func TestGather_RelativeRootYieldsAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	d := filepath.Join(root, "corpus", "1", "2")
	touch(t, filepath.Join(d, "a.flac"))
	write(t, filepath.Join(d, "1-2.trans.txt"), "a alpha\n")

	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(root); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	pairs, _, err := Gather("corpus", Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if !filepath.IsAbs(pairs[0].AudioPath) || filepath.Base(pairs[0].AudioPath) != "a.flac" {
		t.Fatalf("expected absolute audio path, got %q", pairs[0].AudioPath)
	}
}

func TestGather_MissingRoot(t *testing.T) {
	_, _, err := Gather(filepath.Join(t.TempDir(), "nope"), Options{})
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestGather_UnreadableTranscriptAborts(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	d := filepath.Join(root, "1", "2")
	touch(t, filepath.Join(d, "a.flac"))
	trans := filepath.Join(d, "1-2.trans.txt")
	write(t, trans, "a alpha\n")
	if err := os.Chmod(trans, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(trans, 0o644) })

	if _, _, err := Gather(root, Options{}); err == nil {
		t.Fatal("expected error for unreadable transcript")
	}
}

func TestParseMissingPolicy(t *testing.T) {
	cases := map[string]MissingPolicy{"": MissingDrop, "drop": MissingDrop, "EMPTY": MissingEmpty}
	for in, want := range cases {
		got, err := ParseMissingPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseMissingPolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMissingPolicy("pad"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestCountFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "1.flac"))
	touch(t, filepath.Join(root, "a", "b", "2.flac"))
	touch(t, filepath.Join(root, "a", "b", "3.txt"))

	n, err := CountFiles(root, "")
	if err != nil {
		t.Fatalf("CountFiles: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	write(t, path, "x")
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
