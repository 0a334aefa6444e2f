package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, src string) []Token {
	t.Helper()
	tz := NewTokenizer(src)
	var out []Token
	for {
		tok, err := tz.Next()
		require.NoError(t, err)
		if tok.Kind == TokEOF {
			return out
		}
		out = append(out, tok)
	}
}

func TestTokenizer_KeywordsAndIdents(t *testing.T) {
	toks := tokenize(t, "select name FROM Users")

	require.Len(t, toks, 4)
	require.Equal(t, Token{Kind: TokKeyword, Text: "SELECT", Pos: 0}, toks[0])
	require.Equal(t, Token{Kind: TokIdent, Text: "name", Pos: 7}, toks[1])
	require.Equal(t, Token{Kind: TokKeyword, Text: "FROM", Pos: 12}, toks[2])
	// identifiers keep their original case
	require.Equal(t, Token{Kind: TokIdent, Text: "Users", Pos: 17}, toks[3])
}

func TestTokenizer_Strings(t *testing.T) {
	toks := tokenize(t, `'alice' "bob" 'it\'s' 'a\nb'`)

	require.Len(t, toks, 4)
	require.Equal(t, "alice", toks[0].Text)
	require.Equal(t, "bob", toks[1].Text)
	require.Equal(t, "it's", toks[2].Text)
	require.Equal(t, "a\nb", toks[3].Text)
	for _, tok := range toks {
		require.Equal(t, TokString, tok.Kind)
	}
}

func TestTokenizer_Numbers(t *testing.T) {
	toks := tokenize(t, "42 -17 3.14 -0.5")

	require.Len(t, toks, 4)
	require.Equal(t, TokInt, toks[0].Kind)
	require.Equal(t, "42", toks[0].Text)
	require.Equal(t, TokInt, toks[1].Kind)
	require.Equal(t, "-17", toks[1].Text)
	require.Equal(t, TokFloat, toks[2].Kind)
	require.Equal(t, "3.14", toks[2].Text)
	require.Equal(t, TokFloat, toks[3].Kind)
	require.Equal(t, "-0.5", toks[3].Text)
}

func TestTokenizer_Operators(t *testing.T) {
	toks := tokenize(t, "= != <> < > <= >=")

	texts := make([]string, len(toks))
	for i, tok := range toks {
		require.Equal(t, TokOperator, tok.Kind)
		texts[i] = tok.Text
	}
	require.Equal(t, []string{"=", "!=", "<>", "<", ">", "<=", ">="}, texts)
}

func TestTokenizer_Comments(t *testing.T) {
	toks := tokenize(t, "SELECT -- the works\n*")

	require.Len(t, toks, 2)
	require.Equal(t, "SELECT", toks[0].Text)
	require.Equal(t, "*", toks[1].Text)
}

func TestTokenizer_UnterminatedString(t *testing.T) {
	tz := NewTokenizer("WHERE name = 'alice")
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		_, err = tz.Next()
	}

	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, 13, lexErr.Pos)
	require.Contains(t, lexErr.Error(), "unterminated string")
}

func TestTokenizer_IllegalCharacter(t *testing.T) {
	tz := NewTokenizer("SELECT @")
	_, err := tz.Next()
	require.NoError(t, err)
	_, err = tz.Next()

	var lexErr *LexError
	require.True(t, errors.As(err, &lexErr))
	require.Equal(t, 7, lexErr.Pos)
}

func TestTokenizer_BareExclamation(t *testing.T) {
	tz := NewTokenizer("a ! b")
	_, err := tz.Next()
	require.NoError(t, err)
	_, err = tz.Next()

	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, 2, lexErr.Pos)
}
