// Package language identifies the language of transcribed text.
package language

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Detector reports the ISO 639-1 code of the language a text is written in.
type Detector interface {
	Detect(text string) (string, bool)
}

// Lingua is a Detector backed by lingua-go. The underlying model is built
// lazily on first use and shared afterwards.
type Lingua struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

func NewLingua() *Lingua {
	return &Lingua{}
}

func (l *Lingua) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	l.once.Do(func() {
		l.detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithLowAccuracyMode().
			Build()
	})

	lang, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// Matches reports whether the detected code equals the expected one.
// An empty expectation matches anything.
func Matches(detected, expected string) bool {
	if expected == "" {
		return true
	}
	return strings.EqualFold(detected, expected)
}
