// Package script splits user-authored SQL scripts into statements and
// classifies each statement.
//
// Splitting is lexical, not a parse: the scanner tracks string literals,
// quoted identifiers, comments, dollar quoting and procedural blocks so that
// a ';' inside any of them does not end a statement.
package script

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dialect"
)

// Statement is one statement of a script.
type Statement struct {
	Text   string // statement text without its terminator
	Line   int    // 1-based line of the first token
	Offset int    // byte offset of the first token

	keyword      string // first keyword, upper-cased
	hasReturning bool   // RETURNING / OUTPUT clause seen
}

// Keyword returns the first keyword of the statement, upper-cased.
func (s Statement) Keyword() string {
	return s.keyword
}

// IsDataReturning reports whether the statement is expected to produce rows.
func (s Statement) IsDataReturning(d core.Dialect) bool {
	return s.hasReturning || dialect.For(d).IsDataReturningKeyword(s.keyword)
}

var (
	delimiterDirective = regexp.MustCompile(`(?i)^[ \t]*DELIMITER[ \t]+(\S+)[ \t]*\r?$`)
	goDirective        = regexp.MustCompile(`(?i)^[ \t]*GO(?:[ \t]+\d+)?[ \t]*\r?$`)
)

// routineKinds are the CREATE targets whose bodies contain ';'.
var routineKinds = map[string]struct{}{
	"TRIGGER": {}, "PROCEDURE": {}, "FUNCTION": {}, "EVENT": {},
}

// nonBlockBegin lists words after BEGIN that make it a statement, not a block (SQL Server).
var nonBlockBegin = map[string]struct{}{
	"TRAN": {}, "TRANSACTION": {}, "DISTRIBUTED": {}, "DIALOG": {}, "CONVERSATION": {},
}

// loopEnds are words following END that close a construct not counted as a block.
var loopEnds = map[string]struct{}{
	"IF": {}, "LOOP": {}, "WHILE": {}, "REPEAT": {},
}

type splitter struct {
	input     string
	dialect   core.Dialect
	pos       int
	line      int
	delimiter string

	stmtLine   int
	stmtOffset int
	words      []string
	depth      int
	returning  bool
	stmts      []Statement
}

// Split splits a script into statements for the given dialect.
// Empty statements and comment-only fragments are dropped.
func Split(sql string, d core.Dialect) []Statement {
	s := &splitter{input: sql, dialect: d, line: 1, delimiter: ";", stmtOffset: -1}
	s.run()
	return s.stmts
}

// SplitText is Split returning only the statement texts.
func SplitText(sql string, d core.Dialect) []string {
	stmts := Split(sql, d)
	out := make([]string, len(stmts))
	for i, st := range stmts {
		out[i] = st.Text
	}
	return out
}

func (s *splitter) run() {
	for s.pos < len(s.input) {
		if s.atLineStart() && s.directive() {
			continue
		}

		ch := s.input[s.pos]
		switch {
		case ch == '\n':
			s.line++
			s.pos++
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f':
			s.pos++
		case ch == '-' && s.peek(1) == '-':
			s.skipLine()
		case ch == '#' && s.dialect == core.MySQL && s.delimiter != "#":
			s.skipLine()
		case ch == '/' && s.peek(1) == '*':
			s.skipBlockComment()
		case s.depth == 0 && strings.HasPrefix(s.input[s.pos:], s.delimiter):
			s.flush(s.pos)
			s.pos += len(s.delimiter)
		case ch == '\'':
			s.markContent()
			s.skipQuoted('\'', s.backslashEscapes())
		case ch == '"':
			s.markContent()
			s.skipQuoted('"', s.dialect == core.MySQL)
		case ch == '`' && (s.dialect == core.MySQL || s.dialect == core.SQLite):
			s.markContent()
			s.skipQuoted('`', false)
		case ch == '[' && (s.dialect == core.MSSQL || s.dialect == core.SQLite):
			s.markContent()
			s.skipBracket()
		case ch == '$' && s.dialect == core.PostgreSQL && s.dollarTag() != "":
			s.markContent()
			s.skipDollarQuoted(s.dollarTag())
		case isWordStart(ch):
			s.markContent()
			s.word()
		default:
			s.markContent()
			s.pos++
		}
	}
	s.flush(len(s.input))
}

func (s *splitter) peek(n int) byte {
	if s.pos+n >= len(s.input) {
		return 0
	}
	return s.input[s.pos+n]
}

func (s *splitter) atLineStart() bool {
	return s.pos == 0 || s.input[s.pos-1] == '\n'
}

// currentLine returns the text from pos to the end of the line.
func (s *splitter) currentLine() string {
	end := strings.IndexByte(s.input[s.pos:], '\n')
	if end < 0 {
		return s.input[s.pos:]
	}
	return s.input[s.pos : s.pos+end]
}

// directive handles client-side lines: DELIMITER (MySQL) and GO (SQL Server).
func (s *splitter) directive() bool {
	switch s.dialect {
	case core.MySQL:
		line := s.currentLine()
		m := delimiterDirective.FindStringSubmatch(line)
		if m == nil {
			return false
		}
		s.flush(s.pos)
		s.delimiter = m[1]
		s.pos += len(line)
		return true
	case core.MSSQL:
		line := s.currentLine()
		if !goDirective.MatchString(line) {
			return false
		}
		s.flush(s.pos)
		s.depth = 0
		s.pos += len(line)
		return true
	default:
		return false
	}
}

func (s *splitter) markContent() {
	if s.stmtOffset < 0 {
		s.stmtOffset = s.pos
		s.stmtLine = s.line
	}
}

func (s *splitter) flush(end int) {
	if s.stmtOffset >= 0 && end > s.stmtOffset {
		text := strings.TrimSpace(s.input[s.stmtOffset:end])
		if text != "" {
			s.stmts = append(s.stmts, Statement{
				Text:         text,
				Line:         s.stmtLine,
				Offset:       s.stmtOffset,
				keyword:      s.firstWord(),
				hasReturning: s.returning,
			})
		}
	}
	s.stmtOffset = -1
	s.words = s.words[:0]
	s.depth = 0
	s.returning = false
}

func (s *splitter) firstWord() string {
	if len(s.words) == 0 {
		return ""
	}
	return s.words[0]
}

func (s *splitter) skipLine() {
	for s.pos < len(s.input) && s.input[s.pos] != '\n' {
		s.pos++
	}
}

// skipBlockComment skips /* ... */. PostgreSQL block comments nest.
func (s *splitter) skipBlockComment() {
	nesting := 0
	for s.pos < len(s.input) {
		switch {
		case s.input[s.pos] == '/' && s.peek(1) == '*':
			nesting++
			s.pos += 2
			if s.dialect != core.PostgreSQL && nesting > 1 {
				nesting = 1
			}
		case s.input[s.pos] == '*' && s.peek(1) == '/':
			nesting--
			s.pos += 2
			if nesting == 0 {
				return
			}
		default:
			if s.input[s.pos] == '\n' {
				s.line++
			}
			s.pos++
		}
	}
}

// backslashEscapes reports whether the string starting at pos treats
// backslash as an escape: always on MySQL, for E'' strings on PostgreSQL.
func (s *splitter) backslashEscapes() bool {
	switch s.dialect {
	case core.MySQL:
		return true
	case core.PostgreSQL:
		if s.pos == 0 {
			return false
		}
		prev := s.input[s.pos-1]
		if prev != 'E' && prev != 'e' {
			return false
		}
		return s.pos < 2 || !isWordChar(s.input[s.pos-2])
	default:
		return false
	}
}

// skipQuoted skips a literal delimited by q where a doubled q is an escape.
func (s *splitter) skipQuoted(q byte, backslash bool) {
	s.pos++ // opening quote
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		switch {
		case backslash && ch == '\\':
			if s.peek(1) == '\n' {
				s.line++
			}
			s.pos += 2
			continue
		case ch == q:
			if s.peek(1) == q {
				s.pos += 2
				continue
			}
			s.pos++
			return
		case ch == '\n':
			s.line++
		}
		s.pos++
	}
}

func (s *splitter) skipBracket() {
	s.pos++
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		if ch == ']' {
			if s.peek(1) == ']' {
				s.pos += 2
				continue
			}
			s.pos++
			return
		}
		if ch == '\n' {
			s.line++
		}
		s.pos++
	}
}

// dollarTag returns the opening tag ($$ or $name$) at pos, or "".
func (s *splitter) dollarTag() string {
	if s.pos > 0 && isWordChar(s.input[s.pos-1]) {
		return ""
	}
	i := s.pos + 1
	if i < len(s.input) && s.input[i] == '$' {
		return "$$"
	}
	if i >= len(s.input) || !isWordStart(s.input[i]) {
		return ""
	}
	for i < len(s.input) && isWordChar(s.input[i]) && s.input[i] != '$' {
		i++
	}
	if i < len(s.input) && s.input[i] == '$' {
		return s.input[s.pos : i+1]
	}
	return ""
}

func (s *splitter) skipDollarQuoted(tag string) {
	body := s.pos + len(tag)
	end := strings.Index(s.input[body:], tag)
	if end < 0 {
		s.line += strings.Count(s.input[s.pos:], "\n")
		s.pos = len(s.input)
		return
	}
	stop := body + end + len(tag)
	s.line += strings.Count(s.input[s.pos:stop], "\n")
	s.pos = stop
}

// word consumes an identifier or keyword and updates block depth.
func (s *splitter) word() {
	begin := s.pos
	for s.pos < len(s.input) && isWordChar(s.input[s.pos]) {
		s.pos++
	}
	w := strings.ToUpper(s.input[begin:s.pos])
	s.words = append(s.words, w)

	if w == "RETURNING" || (w == "OUTPUT" && s.dialect == core.MSSQL) {
		s.returning = true
	}
	if !s.tracksBlocks() {
		return
	}

	switch w {
	case "BEGIN":
		next := s.peekWord()
		if s.dialect == core.MSSQL {
			if _, skip := nonBlockBegin[next]; skip {
				return
			}
		}
		if s.dialect == core.PostgreSQL && next != "ATOMIC" {
			return
		}
		s.depth++
	case "CASE":
		if s.dialect == core.PostgreSQL && s.depth == 0 {
			return
		}
		s.depth++
	case "END":
		next := s.peekWord()
		if _, loop := loopEnds[next]; loop {
			return
		}
		if s.depth > 0 {
			s.depth--
		}
		if next == "CASE" {
			s.skipWord()
		}
	}
}

// tracksBlocks reports whether BEGIN/CASE ... END nesting protects ';'.
func (s *splitter) tracksBlocks() bool {
	if s.dialect == core.MSSQL {
		return true
	}
	if len(s.words) == 0 || s.words[0] != "CREATE" {
		return false
	}
	for _, w := range s.words[1:min(len(s.words), 8)] {
		if _, ok := routineKinds[w]; ok {
			return true
		}
	}
	return false
}

// peekWord returns the next word after whitespace, upper-cased, without consuming it.
func (s *splitter) peekWord() string {
	i := s.pos
	for i < len(s.input) && (s.input[i] == ' ' || s.input[i] == '\t' || s.input[i] == '\r' || s.input[i] == '\n') {
		i++
	}
	j := i
	for j < len(s.input) && isWordChar(s.input[j]) {
		j++
	}
	return strings.ToUpper(s.input[i:j])
}

func (s *splitter) skipWord() {
	for s.pos < len(s.input) && !isWordStart(s.input[s.pos]) {
		if s.input[s.pos] == '\n' {
			s.line++
		}
		s.pos++
	}
	for s.pos < len(s.input) && isWordChar(s.input[s.pos]) {
		s.pos++
	}
}

func isWordStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isWordChar(ch byte) bool {
	return isWordStart(ch) || (ch >= '0' && ch <= '9') || ch == '$'
}
