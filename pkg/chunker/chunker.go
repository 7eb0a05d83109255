package chunker

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput marks text that cannot be chunked at all.
	ErrInvalidInput = errors.New("chunker: invalid input text")
	// ErrConfiguration marks an unusable size/overlap policy. Raised at
	// construction, never per call.
	ErrConfiguration = errors.New("chunker: invalid configuration")
)

// Piece is one bounded segment of the input text. Index is 0-based and
// increases by 1 in output order.
type Piece struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// Chunker splits text into segments of at most MaxSize runes where consecutive
// segments share Overlap runes. Splitting is deterministic: the same text and
// policy always produce the same pieces.
type Chunker struct {
	maxSize int
	overlap int
}

func New(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, errors.Wrapf(ErrConfiguration, "max size must be positive, got %d", maxSize)
	}
	if overlap < 0 {
		return nil, errors.Wrapf(ErrConfiguration, "overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxSize {
		return nil, errors.Wrapf(ErrConfiguration, "overlap %d must be smaller than max size %d", overlap, maxSize)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

func (c *Chunker) MaxSize() int { return c.maxSize }
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text. Empty text yields no pieces; text that fits in one
// segment yields exactly one. Windows advance by maxSize-overlap runes, so
// every piece after the first begins with the previous piece's tail.
func (c *Chunker) Chunk(text string) ([]Piece, error) {
	if !utf8.ValidString(text) {
		return nil, errors.Wrap(ErrInvalidInput, "text is not valid UTF-8")
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	if len(runes) <= c.maxSize {
		return []Piece{{Index: 0, Content: text}}, nil
	}

	step := c.maxSize - c.overlap
	pieces := make([]Piece, 0, (len(runes)+step-1)/step)
	idx := 0
	for start := 0; start < len(runes); start += step {
		end := start + c.maxSize
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, Piece{Index: idx, Content: string(runes[start:end])})
		idx++
		if end == len(runes) {
			break
		}
	}
	return pieces, nil
}

// ChunkText is a one-shot helper for callers that do not hold a Chunker.
func ChunkText(text string, maxSize, overlap int) ([]Piece, error) {
	c, err := New(maxSize, overlap)
	if err != nil {
		return nil, err
	}
	return c.Chunk(text)
}
