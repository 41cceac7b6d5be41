package solidity

import (
	"errors"
	"fmt"
)

// ErrInvalidImport reports an import directive or import path that cannot be resolved
// by any rule.
var ErrInvalidImport = errors.New("invalid import")

// ParseImports extracts the path of every import directive in sourceCode, in source order.
// Comments and string literals outside import directives are skipped, so commented-out
// imports are not reported.
func ParseImports(sourceCode []byte) ([]string, error) {
	s := scanner{src: sourceCode, line: 1}
	var imports []string

	for s.pos < len(s.src) {
		if s.skipTrivia() {
			continue
		}

		c := s.src[s.pos]
		switch {
		case c == '"' || c == '\'':
			if _, err := s.readString(); err != nil {
				return nil, err
			}
		case isIdentStart(c):
			line := s.line
			if s.readIdent() != "import" {
				continue
			}
			path, err := s.readImportDirective()
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidImport, line, err)
			}
			imports = append(imports, path)
		default:
			s.advance()
		}
	}

	return imports, nil
}

type scanner struct {
	src  []byte
	pos  int
	line int
}

func (s *scanner) advance() {
	if s.src[s.pos] == '\n' {
		s.line++
	}
	s.pos++
}

func (s *scanner) hasPrefix(prefix string) bool {
	return len(s.src)-s.pos >= len(prefix) && string(s.src[s.pos:s.pos+len(prefix)]) == prefix
}

// skipTrivia skips one comment or whitespace character. It reports whether anything
// was skipped.
func (s *scanner) skipTrivia() bool {
	switch {
	case s.hasPrefix("//"):
		for s.pos < len(s.src) && s.src[s.pos] != '\n' {
			s.advance()
		}
		return true
	case s.hasPrefix("/*"):
		s.pos += 2
		for s.pos < len(s.src) && !s.hasPrefix("*/") {
			s.advance()
		}
		if s.pos < len(s.src) {
			s.pos += 2
		}
		return true
	case s.src[s.pos] == ' ' || s.src[s.pos] == '\t' || s.src[s.pos] == '\r' || s.src[s.pos] == '\n':
		s.advance()
		return true
	}
	return false
}

func (s *scanner) readIdent() string {
	start := s.pos
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

func (s *scanner) readString() (string, error) {
	quote := s.src[s.pos]
	startLine := s.line
	s.pos++

	var value []byte
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\' && s.pos+1 < len(s.src):
			value = append(value, s.src[s.pos+1])
			s.pos += 2
		case c == quote:
			s.pos++
			return string(value), nil
		case c == '\n':
			return "", fmt.Errorf("unterminated string literal on line %d", startLine)
		default:
			value = append(value, c)
			s.pos++
		}
	}
	return "", fmt.Errorf("unterminated string literal on line %d", startLine)
}

// readImportDirective consumes the rest of an import directive up to its semicolon
// and returns the imported path, which is the directive's only string literal.
func (s *scanner) readImportDirective() (string, error) {
	var path string
	found := false

	for s.pos < len(s.src) {
		if s.skipTrivia() {
			continue
		}

		c := s.src[s.pos]
		switch {
		case c == ';':
			s.pos++
			if !found {
				return "", fmt.Errorf("import directive without a path")
			}
			return path, nil
		case c == '"' || c == '\'':
			value, err := s.readString()
			if err != nil {
				return "", err
			}
			if !found {
				path = value
				found = true
			}
		default:
			s.advance()
		}
	}

	return "", fmt.Errorf("unterminated import directive")
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
