package action

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// CallExpr is a parsed method-call expression: a method name plus
// positional argument literals.
type CallExpr struct {
	Name string
	Args []any
}

var pathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ParseCallExpr parses "name", "name()" or "name(arg, ...)" forms.
// Argument literals follow JSON syntax, with single-quoted strings
// and Python-style True/False/None accepted for client convenience.
func ParseCallExpr(expr string) (*CallExpr, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("action: empty call expression")
	}

	open := strings.IndexByte(expr, '(')
	if open == -1 {
		return &CallExpr{Name: expr}, nil
	}
	if !strings.HasSuffix(expr, ")") {
		return nil, fmt.Errorf("action: unbalanced call expression %q", expr)
	}

	name := strings.TrimSpace(expr[:open])
	if name == "" {
		return nil, fmt.Errorf("action: missing method name in %q", expr)
	}

	inner := strings.TrimSpace(expr[open+1 : len(expr)-1])
	if inner == "" {
		return &CallExpr{Name: name}, nil
	}

	tokens, err := splitArgs(inner)
	if err != nil {
		return nil, fmt.Errorf("action: parse %q: %w", expr, err)
	}
	args := make([]any, 0, len(tokens))
	for _, tok := range tokens {
		v, err := parseLiteral(tok)
		if err != nil {
			return nil, fmt.Errorf("action: parse %q: %w", expr, err)
		}
		args = append(args, v)
	}
	return &CallExpr{Name: name, Args: args}, nil
}

// ParseAssignment recognizes the "path = literal" shorthand. ok is
// false when the expression is not an assignment, when the left side
// is not a valid property path, or when the right side is not a
// parseable literal.
func ParseAssignment(expr string) (path string, value any, ok bool) {
	idx := assignIndex(expr)
	if idx == -1 {
		return "", nil, false
	}

	path = strings.TrimSpace(expr[:idx])
	if !pathPattern.MatchString(path) {
		return "", nil, false
	}

	v, err := parseLiteral(strings.TrimSpace(expr[idx+1:]))
	if err != nil {
		return "", nil, false
	}
	return path, v, true
}

// assignIndex finds the top-level assignment operator, skipping
// quoted regions and comparison operators.
func assignIndex(expr string) int {
	var quote byte
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '=':
			if i+1 < len(expr) && expr[i+1] == '=' {
				return -1
			}
			if i > 0 && strings.IndexByte("!<>", expr[i-1]) != -1 {
				return -1
			}
			return i
		}
	}
	return -1
}

// splitArgs splits a comma-separated argument list at depth zero,
// respecting quotes and brackets.
func splitArgs(s string) ([]string, error) {
	var (
		tokens []string
		start  int
		depth  int
		quote  byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				tokens = append(tokens, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if quote != 0 || depth != 0 {
		return nil, fmt.Errorf("unbalanced argument list %q", s)
	}
	tokens = append(tokens, strings.TrimSpace(s[start:]))
	return tokens, nil
}

// parseLiteral evaluates one argument literal.
func parseLiteral(tok string) (any, error) {
	tok = strings.TrimSpace(tok)
	switch tok {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	}

	if len(tok) >= 2 && tok[0] == '\'' && tok[len(tok)-1] == '\'' {
		inner := strings.ReplaceAll(tok[1:len(tok)-1], `\'`, `'`)
		tok = strconv.Quote(inner)
	}

	if !gjson.Valid(tok) {
		return nil, fmt.Errorf("invalid literal %q", tok)
	}
	return gjson.Parse(tok).Value(), nil
}
