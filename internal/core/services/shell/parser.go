package shell

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnterminatedQuote = errors.New("unterminated quote")
	ErrSyntax            = errors.New("syntax error")
)

// Operator joins a segment to the one before it.
type Operator int

const (
	OpNone Operator = iota
	OpAnd
	OpOr
)

func (o Operator) String() string {
	switch o {
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return ""
	}
}

// Stage is a single command of a pipe chain.
type Stage struct {
	Name string
	Args []string
}

// Segment is a pipe chain plus the operator that gates it.
type Segment struct {
	Op     Operator
	Stages []Stage
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokAnd
	tokOr
	tokPipe
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits a line into words and operators. Quoted text is always a
// word, so "and" in quotes is not an operator.
func tokenize(line string) ([]token, error) {
	var (
		tokens []token
		cur    strings.Builder
		inWord bool
		quoted bool
		quote  rune
	)
	flush := func() {
		if !inWord {
			return
		}
		text := cur.String()
		kind := tokWord
		if !quoted {
			switch text {
			case "and":
				kind = tokAnd
			case "or":
				kind = tokOr
			}
		}
		tokens = append(tokens, token{kind: kind, text: text})
		cur.Reset()
		inWord, quoted = false, false
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if quote != 0 {
			switch {
			case r == quote:
				quote = 0
			case r == '\\' && quote == '"' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\\'):
				i++
				cur.WriteRune(runes[i])
			default:
				cur.WriteRune(r)
			}
			continue
		}
		switch {
		case r == '"' || r == '\'':
			quote = r
			inWord, quoted = true, true
		case r == ' ' || r == '\t':
			flush()
		case r == '&' && i+1 < len(runes) && runes[i+1] == '&':
			flush()
			tokens = append(tokens, token{kind: tokAnd, text: "&&"})
			i++
		case r == '|' && i+1 < len(runes) && runes[i+1] == '|':
			flush()
			tokens = append(tokens, token{kind: tokOr, text: "||"})
			i++
		case r == '|':
			flush()
			tokens = append(tokens, token{kind: tokPipe, text: "|"})
		case r == '\\' && i+1 < len(runes):
			i++
			cur.WriteRune(runes[i])
			inWord = true
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: missing %c", ErrUnterminatedQuote, quote)
	}
	flush()
	return tokens, nil
}

// Parse splits a line into conditional segments of pipe stages.
func Parse(line string) ([]Segment, error) {
	tokens, err := tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	var (
		segments []Segment
		seg      = Segment{Op: OpNone}
		stage    *Stage
	)
	unexpected := func(t token) error {
		return fmt.Errorf("%w near unexpected token `%s'", ErrSyntax, t.text)
	}
	for _, t := range tokens {
		switch t.kind {
		case tokWord:
			if stage == nil {
				seg.Stages = append(seg.Stages, Stage{Name: t.text})
				stage = &seg.Stages[len(seg.Stages)-1]
				continue
			}
			stage.Args = append(stage.Args, t.text)
		case tokPipe:
			if stage == nil {
				return nil, unexpected(t)
			}
			stage = nil
		case tokAnd, tokOr:
			if stage == nil {
				return nil, unexpected(t)
			}
			segments = append(segments, seg)
			op := OpAnd
			if t.kind == tokOr {
				op = OpOr
			}
			seg = Segment{Op: op}
			stage = nil
		}
	}
	if stage == nil {
		return nil, fmt.Errorf("%w: unexpected end of line", ErrSyntax)
	}
	return append(segments, seg), nil
}

// SplitWords tokenizes text into plain words, honoring quotes. Operators are
// kept as words.
func SplitWords(text string) ([]string, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.text
	}
	return words, nil
}
