package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// Params carries the concrete values substituted into an Exec template.
type Params struct {
	// Size is the requested maximum pixel dimension (%s).
	Size int
	// URI is the source file's canonical URI (%u).
	URI string
	// Input is the source file's absolute path (%i).
	Input string
	// Output is the path the thumbnailer must write (%o).
	Output string
}

// Invocation is a fully expanded, token-free command ready for execution.
type Invocation struct {
	Program string
	Args    []string
}

// String renders the invocation for logging.
func (inv Invocation) String() string {
	return strings.Join(append([]string{inv.Program}, inv.Args...), " ")
}

// ErrEmptyTemplate is returned for templates with no tokens.
var ErrEmptyTemplate = errors.New("empty command template")

// Build tokenizes the Exec template and substitutes placeholder tokens:
// %s (size), %u (URI), %i (input path), %o (output path), %% (literal %).
// Tokenization failures (e.g. unbalanced quotes) and empty templates are
// errors.
func Build(execLine string, p Params) (Invocation, error) {
	tokens, err := shlex.Split(execLine)
	if err != nil {
		return Invocation{}, fmt.Errorf("tokenizing template: %w", err)
	}
	if len(tokens) == 0 {
		return Invocation{}, ErrEmptyTemplate
	}

	expanded := make([]string, len(tokens))
	for i, tok := range tokens {
		expanded[i] = expandToken(tok, p)
	}
	return Invocation{Program: expanded[0], Args: expanded[1:]}, nil
}

// expandToken replaces placeholder markers within a single token. The
// substituted values are inserted as-is and never re-parsed.
func expandToken(tok string, p Params) string {
	if !strings.ContainsRune(tok, '%') {
		return tok
	}
	var b strings.Builder
	b.Grow(len(tok))
	for i := 0; i < len(tok); i++ {
		if tok[i] != '%' || i+1 == len(tok) {
			b.WriteByte(tok[i])
			continue
		}
		i++
		switch tok[i] {
		case 's':
			b.WriteString(strconv.Itoa(p.Size))
		case 'u':
			b.WriteString(p.URI)
		case 'i':
			b.WriteString(p.Input)
		case 'o':
			b.WriteString(p.Output)
		case '%':
			b.WriteByte('%')
		default:
			// Unknown markers pass through untouched.
			b.WriteByte('%')
			b.WriteByte(tok[i])
		}
	}
	return b.String()
}
