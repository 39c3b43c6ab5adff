// Package chunker splits extracted paper text into bounded pieces for
// per-chunk analysis. Chunks are exact substrings of the input: concatenating
// them in index order reproduces the original text.
package chunker

import (
	"log"
	"unicode"
)

// Config controls chunk sizing.
type Config struct {
	// MaxSize is the chunk size limit in runes.
	MaxSize int
	// Lookback is how far before the limit to search for a natural boundary.
	Lookback int
}

// DefaultConfig provides sane defaults for chunking.
func DefaultConfig() Config {
	return Config{
		MaxSize:  30000,
		Lookback: 2000,
	}
}

// Chunk is one bounded piece of the input text.
type Chunk struct {
	Index int
	Text  string
	// EndsMidSection is set when the chunk was not cut at a paragraph
	// boundary, so downstream output may start mid-sentence.
	EndsMidSection bool
}

// Splitter splits text according to its Config.
type Splitter struct {
	cfg Config
}

// New creates a Splitter. Zero or negative config values fall back to
// defaults; Lookback is clamped to MaxSize.
func New(cfg Config) *Splitter {
	def := DefaultConfig()
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = def.Lookback
	}
	if cfg.Lookback > cfg.MaxSize {
		cfg.Lookback = cfg.MaxSize
	}
	return &Splitter{cfg: cfg}
}

// Split divides text into chunks of at most MaxSize runes each, preferring
// to cut at a paragraph boundary within the lookback window, then at any
// whitespace, then hard at the limit. Empty input yields no chunks.
func (s *Splitter) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.cfg.MaxSize {
		return []Chunk{{Index: 0, Text: text}}
	}

	chunks := make([]Chunk, 0, len(runes)/s.cfg.MaxSize+1)
	start := 0
	for start < len(runes) {
		if len(runes)-start <= s.cfg.MaxSize {
			chunks = append(chunks, Chunk{
				Index: len(chunks),
				Text:  string(runes[start:]),
			})
			break
		}

		limit := start + s.cfg.MaxSize
		cut, midSection := s.findCut(runes, start, limit)
		chunks = append(chunks, Chunk{
			Index:          len(chunks),
			Text:           string(runes[start:cut]),
			EndsMidSection: midSection,
		})
		start = cut
	}

	return chunks
}

// findCut picks the cut position in (start, limit]. Returns the position and
// whether the cut falls inside a section (anything but a paragraph boundary).
func (s *Splitter) findCut(runes []rune, start, limit int) (int, bool) {
	windowStart := limit - s.cfg.Lookback
	if windowStart < start {
		windowStart = start
	}

	// Paragraph boundary: cut just after a blank line so the separator
	// stays with the preceding chunk.
	for i := limit; i >= windowStart+2; i-- {
		if runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i, false
		}
	}

	for i := limit; i > windowStart; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i, true
		}
	}

	// No boundary in the window. The hard cut may land mid-sentence, which
	// degrades downstream output but is not an error.
	log.Printf("chunker: no boundary within %d runes of limit, hard cut at %d", s.cfg.Lookback, limit)
	return limit, true
}
