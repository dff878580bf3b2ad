// Package chunker packs document paragraphs into bounded units.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// DefaultMaxSize is the default maximum number of characters per unit.
const DefaultMaxSize = domain.DefaultMaxUnitSize

const (
	paragraphSeparator = "\n\n"
	pieceSeparator     = " "
)

// Ensure Chunker implements the interface.
var _ driven.UnitSplitter = (*Chunker)(nil)

// Chunker splits document text into units of at most maxSize bytes.
// Paragraph boundaries are kept wherever a paragraph fits in a unit.
type Chunker struct {
	maxSize int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxSize sets the maximum unit size in characters.
func WithMaxSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxSize: DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// MaxSize returns the configured unit bound.
func (c *Chunker) MaxSize() int {
	return c.maxSize
}

// Split packs the paragraphs of text into units.
// An empty or blank document produces no units.
func (c *Chunker) Split(text string) []domain.Unit {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	p := packer{maxSize: c.maxSize}
	for _, para := range strings.Split(text, paragraphSeparator) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) <= c.maxSize {
			p.add(para, paragraphSeparator)
			continue
		}

		// Oversized paragraph: fixed-width pieces, joined by a space
		// when they share a unit.
		for i, piece := range cutFixed(para, c.maxSize) {
			sep := pieceSeparator
			if i == 0 {
				sep = paragraphSeparator
			}
			p.add(piece, sep)
		}
	}
	p.flush()

	return p.units
}

// packer accumulates segments greedily into units.
type packer struct {
	maxSize int
	current strings.Builder
	units   []domain.Unit
}

func (p *packer) add(segment, sep string) {
	if p.current.Len() > 0 {
		if p.current.Len()+len(sep)+len(segment) <= p.maxSize {
			p.current.WriteString(sep)
			p.current.WriteString(segment)
			return
		}
		p.flush()
	}
	p.current.WriteString(segment)
}

func (p *packer) flush() {
	if p.current.Len() == 0 {
		return
	}
	text := p.current.String()
	p.units = append(p.units, domain.Unit{
		Index: len(p.units),
		Text:  text,
		Hash:  Hash(text),
	})
	p.current.Reset()
}

// cutFixed cuts s into pieces of at most size bytes without splitting
// a UTF-8 sequence.
func cutFixed(s string, size int) []string {
	pieces := make([]string, 0, len(s)/size+1)
	for len(s) > 0 {
		if len(s) <= size {
			pieces = append(pieces, s)
			break
		}
		cut := size
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			// size is smaller than the leading rune
			_, cut = utf8.DecodeRuneInString(s)
		}
		pieces = append(pieces, s[:cut])
		s = s[cut:]
	}
	return pieces
}

// Hash returns the lowercase hex SHA-256 digest of text.
// It is the content address used by the result cache.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
