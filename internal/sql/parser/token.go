package parser

import (
	"fmt"
	"strings"
)

type TokenKind uint8

const (
	TokKeyword TokenKind = iota
	TokIdent
	TokString
	TokInt
	TokFloat
	TokOperator
	TokPunct
	TokEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokKeyword:
		return "keyword"
	case TokIdent:
		return "identifier"
	case TokString:
		return "string"
	case TokInt:
		return "integer"
	case TokFloat:
		return "float"
	case TokOperator:
		return "operator"
	case TokPunct:
		return "punctuation"
	case TokEOF:
		return "end of input"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

// Token is one lexical unit. Pos is the byte offset of its first character
// in the statement text. Keywords carry their upper-cased text.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// LexError reports an illegal character or unterminated literal.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at position %d: %s", e.Pos, e.Msg)
}

var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true,
	"INSERT": true, "INTO": true, "VALUES": true,
	"UPDATE": true, "SET": true, "DELETE": true,
	"CREATE": true, "TABLE": true, "DROP": true, "INDEX": true, "ON": true,
	"PRIMARY": true, "KEY": true, "UNIQUE": true, "NOT": true, "NULL": true,
	"DEFAULT": true, "AND": true, "OR": true, "LIKE": true,
	"JOIN": true, "INNER": true, "LEFT": true,
	"ORDER": true, "BY": true, "ASC": true, "DESC": true, "LIMIT": true,
	"TRUE": true, "FALSE": true,
	"INT": true, "VARCHAR": true, "FLOAT": true, "BOOLEAN": true, "DATETIME": true,
}

// Tokenizer turns statement text into a lazy token stream. Next never
// re-emits a token; after the EOF token it keeps returning EOF.
type Tokenizer struct {
	src string
	pos int
}

func NewTokenizer(src string) *Tokenizer {
	return &Tokenizer{src: src}
}

func (tz *Tokenizer) Next() (Token, error) {
	tz.skipSpaceAndComments()
	if tz.pos >= len(tz.src) {
		return Token{Kind: TokEOF, Pos: tz.pos}, nil
	}

	start := tz.pos
	ch := tz.src[tz.pos]

	switch {
	case ch == '\'' || ch == '"':
		return tz.scanString()
	case isDigit(ch),
		ch == '-' && tz.pos+1 < len(tz.src) && isDigit(tz.src[tz.pos+1]):
		return tz.scanNumber()
	case isAlpha(ch) || ch == '_':
		return tz.scanWord()
	case ch == '=' || ch == '<' || ch == '>' || ch == '!':
		return tz.scanOperator()
	case strings.IndexByte("(),;.*", ch) >= 0:
		tz.pos++
		return Token{Kind: TokPunct, Text: string(ch), Pos: start}, nil
	default:
		return Token{}, &LexError{Pos: start, Msg: fmt.Sprintf("illegal character %q", ch)}
	}
}

func (tz *Tokenizer) skipSpaceAndComments() {
	for tz.pos < len(tz.src) {
		ch := tz.src[tz.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			tz.pos++
		case ch == '-' && tz.pos+1 < len(tz.src) && tz.src[tz.pos+1] == '-':
			for tz.pos < len(tz.src) && tz.src[tz.pos] != '\n' {
				tz.pos++
			}
		default:
			return
		}
	}
}

func (tz *Tokenizer) scanString() (Token, error) {
	start := tz.pos
	quote := tz.src[tz.pos]
	tz.pos++

	var b strings.Builder
	for tz.pos < len(tz.src) {
		ch := tz.src[tz.pos]
		switch ch {
		case quote:
			tz.pos++
			return Token{Kind: TokString, Text: b.String(), Pos: start}, nil
		case '\\':
			if tz.pos+1 >= len(tz.src) {
				return Token{}, &LexError{Pos: start, Msg: "unterminated string literal"}
			}
			tz.pos++
			switch esc := tz.src[tz.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(esc)
			}
			tz.pos++
		default:
			b.WriteByte(ch)
			tz.pos++
		}
	}
	return Token{}, &LexError{Pos: start, Msg: "unterminated string literal"}
}

func (tz *Tokenizer) scanNumber() (Token, error) {
	start := tz.pos
	if tz.src[tz.pos] == '-' {
		tz.pos++
	}
	isFloat := false
	for tz.pos < len(tz.src) {
		ch := tz.src[tz.pos]
		if isDigit(ch) {
			tz.pos++
			continue
		}
		if ch == '.' && !isFloat && tz.pos+1 < len(tz.src) && isDigit(tz.src[tz.pos+1]) {
			isFloat = true
			tz.pos++
			continue
		}
		break
	}
	kind := TokInt
	if isFloat {
		kind = TokFloat
	}
	return Token{Kind: kind, Text: tz.src[start:tz.pos], Pos: start}, nil
}

func (tz *Tokenizer) scanWord() (Token, error) {
	start := tz.pos
	for tz.pos < len(tz.src) {
		ch := tz.src[tz.pos]
		if !isAlpha(ch) && !isDigit(ch) && ch != '_' {
			break
		}
		tz.pos++
	}
	word := tz.src[start:tz.pos]
	if upper := strings.ToUpper(word); keywords[upper] {
		return Token{Kind: TokKeyword, Text: upper, Pos: start}, nil
	}
	return Token{Kind: TokIdent, Text: word, Pos: start}, nil
}

func (tz *Tokenizer) scanOperator() (Token, error) {
	start := tz.pos
	ch := tz.src[tz.pos]
	tz.pos++

	if tz.pos < len(tz.src) {
		two := string(ch) + string(tz.src[tz.pos])
		switch two {
		case "<=", ">=", "!=", "<>":
			tz.pos++
			return Token{Kind: TokOperator, Text: two, Pos: start}, nil
		}
	}
	if ch == '!' {
		return Token{}, &LexError{Pos: start, Msg: "illegal character '!'"}
	}
	return Token{Kind: TokOperator, Text: string(ch), Pos: start}, nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
