package runtime

import "strings"

// defaultLanguage is assumed when a fence carries no language tag, matching
// what the model is prompted to produce.
const defaultLanguage = "python"

// fenceParser tokenizes streamed completion text into protocol chunks.
// Prose is flushed eagerly for live streaming; a partial line is held back
// only while it could still turn into a code fence. Code lines are held
// until their newline so a closing fence is never mistaken for code.
type fenceParser struct {
	emit func(Chunk) bool // returns false to abort feeding

	line      strings.Builder
	flushed   int // bytes of the current line already emitted as prose
	inCode    bool
	inMessage bool
}

func newFenceParser(emit func(Chunk) bool) *fenceParser {
	return &fenceParser{emit: emit}
}

// feed consumes one streamed fragment. It returns false when the consumer
// aborted.
func (p *fenceParser) feed(text string) bool {
	for _, r := range text {
		if r == '\n' {
			line := p.line.String() + "\n"
			p.line.Reset()
			flushed := p.flushed
			p.flushed = 0
			if !p.handleLine(line, flushed) {
				return false
			}
			continue
		}
		p.line.WriteRune(r)
	}

	// Stream prose that can no longer become a fence without waiting for
	// the newline.
	if !p.inCode && !couldBeFence(p.line.String()) {
		pending := p.line.String()[p.flushed:]
		if pending != "" {
			if !p.startMessage() {
				return false
			}
			if !p.emit(Chunk{Message: pending}) {
				return false
			}
			p.flushed = len(p.line.String())
		}
	}
	return true
}

// finish flushes any partial line and closes open blocks.
func (p *fenceParser) finish() bool {
	if p.line.Len() > 0 {
		line := p.line.String()
		p.line.Reset()
		flushed := p.flushed
		p.flushed = 0
		if !p.handleLine(line, flushed) {
			return false
		}
	}
	if p.inCode {
		p.inCode = false
		if !p.emit(Chunk{EndOfCode: true}) {
			return false
		}
	}
	if p.inMessage {
		p.inMessage = false
		if !p.emit(Chunk{EndOfMessage: true}) {
			return false
		}
	}
	return true
}

func (p *fenceParser) handleLine(line string, flushed int) bool {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "```") {
		if p.inCode {
			p.inCode = false
			return p.emit(Chunk{EndOfCode: true})
		}
		if p.inMessage {
			p.inMessage = false
			if !p.emit(Chunk{EndOfMessage: true}) {
				return false
			}
		}
		lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
		if lang == "" {
			lang = defaultLanguage
		}
		p.inCode = true
		if !p.emit(Chunk{StartOfCode: true}) {
			return false
		}
		return p.emit(Chunk{Language: lang})
	}

	if p.inCode {
		return p.emit(Chunk{Code: line})
	}

	pending := line[flushed:]
	if strings.TrimSpace(pending) == "" && !p.inMessage {
		// Blank lines between blocks are not prose.
		return true
	}
	if !p.startMessage() {
		return false
	}
	return p.emit(Chunk{Message: pending})
}

func (p *fenceParser) startMessage() bool {
	if p.inMessage {
		return true
	}
	p.inMessage = true
	return p.emit(Chunk{StartOfMessage: true})
}

// couldBeFence reports whether a partial line might still grow into a code
// fence once the rest of it arrives.
func couldBeFence(partial string) bool {
	t := strings.TrimLeft(partial, " \t")
	if t == "" {
		return true
	}
	if strings.HasPrefix(t, "```") {
		// Fence already started; the language tag may still be streaming.
		return true
	}
	return t == "`" || t == "``"
}
