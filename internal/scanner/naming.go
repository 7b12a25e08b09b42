package scanner

import "path/filepath"

// Naming maps the absolute directory of an audio file to the name of the
// transcript file expected in that directory.
type Naming func(dir string) string

// LibriSpeechNaming expects <speaker>/<chapter>/<speaker>-<chapter>.trans.txt.
func LibriSpeechNaming(dir string) string {
	speaker, chapter := dirIDs(dir)
	return speaker + "-" + chapter + TransSuffix
}

// FixedNaming expects the same transcript file name in every directory.
func FixedNaming(name string) Naming {
	return func(string) string { return name }
}

// SpeakerChapter returns the grandparent and parent directory names of an
// audio file, which are the speaker and chapter ids in a LibriSpeech tree.
func SpeakerChapter(audioPath string) (speaker, chapter string) {
	return dirIDs(filepath.Dir(audioPath))
}

func dirIDs(dir string) (string, string) {
	return filepath.Base(filepath.Dir(dir)), filepath.Base(dir)
}
