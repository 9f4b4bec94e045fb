package chunker

import (
	"math"
	"strings"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
)

// Config bounds chunk sizes in estimated tokens.
type Config struct {
	MaxTokens     int
	MinTokens     int
	OverlapTokens int
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:     config.MaxChunkTokens,
		MinTokens:     config.MinChunkTokens,
		OverlapTokens: config.OverlapChunkTokens,
	}
}

// Chunk is one token-bounded slice of the input text. Index is zero based
// and contiguous in source order.
type Chunk struct {
	Content      string
	Index        int
	SectionTitle string
	TokenCount   int
}

// EstimateTokens approximates token count as ceil(words * 1.3). The whole
// pipeline budgets against this estimate, so it must stay consistent - no
// real tokenizer is involved.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * 1.3))
}

// Split chunks text with the default regex boundary detection.
func Split(text string, cfg Config) []Chunk {
	return SplitWithBoundary(text, cfg, DefaultBoundary())
}

// SplitWithBoundary splits text into sections by heading, then greedily
// accumulates paragraphs into token-bounded chunks with sentence overlap
// between consecutive chunks. Empty input yields zero chunks.
func SplitWithBoundary(text string, cfg Config, b Boundary) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	bl := &builder{cfg: cfg, boundary: b}
	for _, sec := range parseSections(text, b) {
		for _, paragraph := range sec.paragraphs {
			ptok := EstimateTokens(paragraph)

			if ptok > cfg.MaxTokens {
				//a paragraph too big for any chunk: flush what we have
				//and split the paragraph itself at sentence boundaries
				bl.flush(false)
				bl.splitOversized(paragraph, sec.title)
				continue
			}

			if bl.tokens > 0 && bl.tokens+ptok > cfg.MaxTokens {
				bl.flush(true)
			}
			bl.add(paragraph, sec.title, ptok)
		}
	}
	bl.flush(false)
	return bl.chunks
}

type section struct {
	title      string
	paragraphs []string
}

// parseSections walks the text line by line. Heading lines open a new
// section; blank lines delimit paragraphs; paragraph lines are joined by
// single spaces.
func parseSections(text string, b Boundary) []section {
	sections := []section{{}}
	var lines []string

	flushParagraph := func() {
		if len(lines) == 0 {
			return
		}
		cur := &sections[len(sections)-1]
		cur.paragraphs = append(cur.paragraphs, strings.Join(lines, " "))
		lines = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			flushParagraph()
			continue
		}
		if title, ok := b.HeadingTitle(line); ok {
			flushParagraph()
			sections = append(sections, section{title: title})
			continue
		}
		lines = append(lines, line)
	}
	flushParagraph()

	return sections
}

type builder struct {
	cfg      Config
	boundary Boundary
	chunks   []Chunk

	parts  []string
	tokens int
	title  string
	//hasNew is false while the buffer holds only the overlap seed; a
	//seed-only buffer is never flushed since its text already lives in
	//the previous chunk
	hasNew bool
}

func (bl *builder) add(paragraph string, title string, ptok int) {
	bl.parts = append(bl.parts, paragraph)
	bl.tokens += ptok
	//title attribution follows the section of the most recently added
	//paragraph, so a chunk spilling into the next section takes its title
	bl.title = title
	bl.hasNew = true
}

func (bl *builder) flush(seedOverlap bool) {
	if len(bl.parts) == 0 {
		return
	}
	if !bl.hasNew {
		bl.reset()
		return
	}

	content := strings.Join(bl.parts, "\n\n")
	bl.emit(content, bl.title)

	bl.reset()
	if seedOverlap {
		seed, seedTokens := bl.overlapTail(content)
		if seed != "" {
			bl.parts = []string{seed}
			bl.tokens = seedTokens
		}
	}
}

func (bl *builder) reset() {
	bl.parts = nil
	bl.tokens = 0
	bl.hasNew = false
}

// emit appends a chunk, or - when the content falls below MinTokens and a
// previous chunk exists - appends the text to that previous chunk instead of
// creating a tiny fragment. The merge can push the previous chunk past
// MaxTokens on pathological input; that is accepted behavior.
func (bl *builder) emit(content string, title string) {
	tokens := EstimateTokens(content)
	if tokens < bl.cfg.MinTokens && len(bl.chunks) > 0 {
		prev := &bl.chunks[len(bl.chunks)-1]
		prev.Content = prev.Content + "\n\n" + content
		prev.TokenCount = EstimateTokens(prev.Content)
		return
	}
	bl.chunks = append(bl.chunks, Chunk{
		Content:      content,
		Index:        len(bl.chunks),
		SectionTitle: title,
		TokenCount:   tokens,
	})
}

// overlapTail takes sentences from the end of flushed content, last first,
// stopping before the tail would exceed OverlapTokens.
func (bl *builder) overlapTail(content string) (string, int) {
	sentences := bl.boundary.SplitSentences(content)
	var tail []string
	tokens := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		st := EstimateTokens(sentences[i])
		if tokens+st > bl.cfg.OverlapTokens {
			break
		}
		tail = append([]string{sentences[i]}, tail...)
		tokens += st
	}
	if len(tail) == 0 {
		return "", 0
	}
	return strings.Join(tail, " "), tokens
}

// splitOversized carves one paragraph into sentence-bounded chunks capped at
// MaxTokens. No overlap is seeded between the resulting chunks.
func (bl *builder) splitOversized(paragraph string, title string) {
	sentences := bl.boundary.SplitSentences(paragraph)
	var cur []string
	tokens := 0
	for _, s := range sentences {
		st := EstimateTokens(s)
		if tokens > 0 && tokens+st > bl.cfg.MaxTokens {
			bl.emit(strings.Join(cur, " "), title)
			cur = nil
			tokens = 0
		}
		cur = append(cur, s)
		tokens += st
	}
	if len(cur) > 0 {
		bl.emit(strings.Join(cur, " "), title)
	}
}
