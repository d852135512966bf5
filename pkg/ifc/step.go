package ifc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ErrNoData is returned when a file has no DATA section
var ErrNoData = errors.New("ifc: missing DATA section")

// ParseError reports malformed STEP syntax
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ifc: line %d: %s", e.Line, e.Msg)
}

// Header holds the fields of the STEP HEADER section
type Header struct {
	Description       []string
	Name              string
	TimeStamp         string
	Authors           []string
	Organizations     []string
	Preprocessor      string
	OriginatingSystem string
	Authorization     string
	Schemas           []string
}

// Entity is one instance line of the DATA section: #ID=TYPE(Args);
type Entity struct {
	ID   int
	Type string
	Args []Value
}

// Arg returns the i-th attribute, or a null value when out of range
func (e *Entity) Arg(i int) Value {
	if e == nil || i < 0 || i >= len(e.Args) {
		return Value{Kind: KindNull}
	}
	return e.Args[i]
}

// File is a parsed STEP exchange file
type File struct {
	Header   Header
	Entities map[int]*Entity
	order    []int
}

// Entity looks up an instance by its #id
func (f *File) Entity(id int) *Entity {
	return f.Entities[id]
}

// Deref follows a reference value to its entity
func (f *File) Deref(v Value) *Entity {
	id, ok := v.AsRef()
	if !ok {
		return nil
	}
	return f.Entities[id]
}

// Each calls fn for every entity in file order
func (f *File) Each(fn func(*Entity)) {
	for _, id := range f.order {
		fn(f.Entities[id])
	}
}

// ByType returns all entities of the given (upper case) type in file order
func (f *File) ByType(typ string) []*Entity {
	var result []*Entity
	f.Each(func(e *Entity) {
		if e.Type == typ {
			result = append(result, e)
		}
	})
	return result
}

// TypeCounts returns the number of instances per entity type
func (f *File) TypeCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range f.Entities {
		counts[e.Type]++
	}
	return counts
}

// ParseSTEP reads an ISO 10303-21 exchange file
func ParseSTEP(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STEP data: %w", err)
	}

	file := &File{Entities: make(map[int]*Entity)}
	section := ""
	sawData := false

	err = splitStatements(data, func(stmt []byte, line int) error {
		text := string(bytes.TrimSpace(stmt))
		if text == "" {
			return nil
		}

		switch text {
		case "ISO-10303-21", "END-ISO-10303-21":
			return nil
		case "HEADER", "DATA":
			section = text
			sawData = sawData || text == "DATA"
			return nil
		case "ENDSEC":
			section = ""
			return nil
		}

		switch section {
		case "HEADER":
			return parseHeaderRecord(&file.Header, stmt, line)
		case "DATA":
			entity, err := parseEntity(stmt, line)
			if err != nil {
				return err
			}
			if _, dup := file.Entities[entity.ID]; dup {
				return &ParseError{Line: line, Msg: fmt.Sprintf("duplicate instance #%d", entity.ID)}
			}
			file.Entities[entity.ID] = entity
			file.order = append(file.order, entity.ID)
			return nil
		default:
			return &ParseError{Line: line, Msg: fmt.Sprintf("statement outside of a section: %.40q", text)}
		}
	})
	if err != nil {
		return nil, err
	}
	if !sawData {
		return nil, ErrNoData
	}

	return file, nil
}

// splitStatements cuts the input at ';' outside of strings and comments.
// line is the line on which the statement starts.
func splitStatements(data []byte, fn func(stmt []byte, line int) error) error {
	line := 1
	startLine := 0 // zero until the statement has content
	inString := false
	var stmt []byte

	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\n' {
			line++
		}
		if inString {
			stmt = append(stmt, c)
			if c == '\'' {
				if i+1 < len(data) && data[i+1] == '\'' {
					stmt = append(stmt, '\'')
					i++
					continue
				}
				inString = false
			}
			continue
		}

		switch {
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			end := bytes.Index(data[i+2:], []byte("*/"))
			if end < 0 {
				return &ParseError{Line: line, Msg: "unterminated comment"}
			}
			line += bytes.Count(data[i+2:i+2+end], []byte("\n"))
			i += end + 3
		case c == ';':
			if err := fn(stmt, startLine); err != nil {
				return err
			}
			stmt = stmt[:0]
			startLine = 0
		case startLine == 0 && (c == ' ' || c == '\t' || c == '\r' || c == '\n'):
		default:
			if startLine == 0 {
				startLine = line
			}
			if c == '\'' {
				inString = true
			}
			stmt = append(stmt, c)
		}
	}

	if inString {
		return &ParseError{Line: line, Msg: "unterminated string"}
	}
	if rest := bytes.TrimSpace(stmt); len(rest) > 0 {
		return &ParseError{Line: startLine, Msg: fmt.Sprintf("missing ';' after %.40q", string(rest))}
	}
	return nil
}

func parseEntity(stmt []byte, line int) (*Entity, error) {
	p := &valueParser{s: stmt, line: line}
	p.skipSpace()
	if !p.consume('#') {
		return nil, p.errorf("expected instance name")
	}
	id, err := p.integer()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.consume('=') {
		return nil, p.errorf("expected '=' after #%d", id)
	}
	p.skipSpace()

	entity := &Entity{ID: id}
	if p.peek() == '(' {
		// complex instance: (TYPEA(...) TYPEB(...)); keep the first record
		p.pos++
		p.skipSpace()
		entity.Type = p.keyword()
		args, err := p.list()
		if err != nil {
			return nil, err
		}
		entity.Args = args.List
		return entity, nil
	}

	entity.Type = p.keyword()
	if entity.Type == "" {
		return nil, p.errorf("expected entity type for #%d", id)
	}
	p.skipSpace()
	args, err := p.list()
	if err != nil {
		return nil, err
	}
	entity.Args = args.List
	p.skipSpace()
	if p.pos < len(p.s) {
		return nil, p.errorf("unexpected trailing input for #%d", id)
	}
	return entity, nil
}

func parseHeaderRecord(h *Header, stmt []byte, line int) error {
	p := &valueParser{s: stmt, line: line}
	p.skipSpace()
	name := p.keyword()
	p.skipSpace()
	args, err := p.list()
	if err != nil {
		return err
	}

	switch name {
	case "FILE_DESCRIPTION":
		h.Description = stringsOf(argAt(args.List, 0))
	case "FILE_NAME":
		h.Name, _ = argAt(args.List, 0).AsString()
		h.TimeStamp, _ = argAt(args.List, 1).AsString()
		h.Authors = stringsOf(argAt(args.List, 2))
		h.Organizations = stringsOf(argAt(args.List, 3))
		h.Preprocessor, _ = argAt(args.List, 4).AsString()
		h.OriginatingSystem, _ = argAt(args.List, 5).AsString()
		h.Authorization, _ = argAt(args.List, 6).AsString()
	case "FILE_SCHEMA":
		h.Schemas = stringsOf(argAt(args.List, 0))
	}
	return nil
}

func argAt(list []Value, i int) Value {
	if i < len(list) {
		return list[i]
	}
	return Value{Kind: KindNull}
}

func stringsOf(v Value) []string {
	var result []string
	for _, item := range v.List {
		if s, ok := item.AsString(); ok {
			result = append(result, s)
		}
	}
	return result
}

type valueParser struct {
	s    []byte
	pos  int
	line int
}

func (p *valueParser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line + bytes.Count(p.s[:p.pos], []byte("\n")), Msg: fmt.Sprintf(format, args...)}
}

func (p *valueParser) peek() byte {
	if p.pos < len(p.s) {
		return p.s[p.pos]
	}
	return 0
}

func (p *valueParser) consume(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *valueParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *valueParser) keyword() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '_' || c == '-' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return strings.ToUpper(string(p.s[start:p.pos]))
}

func (p *valueParser) integer() (int, error) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.Atoi(string(p.s[start:p.pos]))
	if err != nil {
		return 0, p.errorf("invalid instance name %q", string(p.s[start:p.pos]))
	}
	return n, nil
}

func (p *valueParser) list() (Value, error) {
	if !p.consume('(') {
		return Value{}, p.errorf("expected '('")
	}
	list := Value{Kind: KindList, List: []Value{}}
	p.skipSpace()
	if p.consume(')') {
		return list, nil
	}
	for {
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		list.List = append(list.List, v)
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(')') {
			return list, nil
		}
		return Value{}, p.errorf("expected ',' or ')' in list")
	}
}

func (p *valueParser) value() (Value, error) {
	c := p.peek()
	switch {
	case c == '$':
		p.pos++
		return Value{Kind: KindNull}, nil
	case c == '*':
		p.pos++
		return Value{Kind: KindDerived}, nil
	case c == '#':
		p.pos++
		id, err := p.integer()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindRef, Ref: id}, nil
	case c == '\'':
		return p.stringValue()
	case c == '"':
		p.pos++
		end := bytes.IndexByte(p.s[p.pos:], '"')
		if end < 0 {
			return Value{}, p.errorf("unterminated binary value")
		}
		raw := string(p.s[p.pos : p.pos+end])
		p.pos += end + 1
		return Value{Kind: KindString, Str: raw}, nil
	case c == '.':
		p.pos++
		end := bytes.IndexByte(p.s[p.pos:], '.')
		if end < 0 {
			return Value{}, p.errorf("unterminated enumeration")
		}
		enum := strings.ToUpper(string(p.s[p.pos : p.pos+end]))
		p.pos += end + 1
		return Value{Kind: KindEnum, Str: enum}, nil
	case c == '(':
		return p.list()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.number()
	case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
		name := p.keyword()
		p.skipSpace()
		inner, err := p.list()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindTyped, Str: name, List: inner.List}, nil
	default:
		return Value{}, p.errorf("unexpected character %q", c)
	}
}

func (p *valueParser) number() (Value, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'E' || c == 'e' {
			p.pos++
			continue
		}
		break
	}
	text := string(p.s[start:p.pos])
	// STEP allows a trailing dot without fraction digits ("1." or "1.E-5")
	text = strings.Replace(text, ".E", ".0E", 1)
	text = strings.Replace(text, ".e", ".0e", 1)
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, p.errorf("invalid number %q", string(p.s[start:p.pos]))
	}
	return Value{Kind: KindNumber, Num: f}, nil
}

func (p *valueParser) stringValue() (Value, error) {
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '\'' {
			if p.pos+1 < len(p.s) && p.s[p.pos+1] == '\'' {
				sb.WriteByte('\'')
				p.pos += 2
				continue
			}
			p.pos++
			return Value{Kind: KindString, Str: decodeControlDirectives(sb.String())}, nil
		}
		sb.WriteByte(c)
		p.pos++
	}
	return Value{}, p.errorf("unterminated string")
}

// decodeControlDirectives expands the \X\hh, \X2\hhhh..\X0\ and \S\c escapes of STEP strings
func decodeControlDirectives(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], `\X2\`):
			end := strings.Index(s[i+4:], `\X0\`)
			if end < 0 {
				sb.WriteString(s[i:])
				return sb.String()
			}
			hex := s[i+4 : i+4+end]
			units := make([]uint16, 0, len(hex)/4)
			for j := 0; j+4 <= len(hex); j += 4 {
				v, err := strconv.ParseUint(hex[j:j+4], 16, 16)
				if err != nil {
					break
				}
				units = append(units, uint16(v))
			}
			sb.WriteString(string(utf16.Decode(units)))
			i += 4 + end + 4
		case strings.HasPrefix(s[i:], `\X\`) && i+5 <= len(s):
			v, err := strconv.ParseUint(s[i+3:i+5], 16, 8)
			if err != nil {
				sb.WriteByte(s[i])
				i++
				continue
			}
			sb.WriteRune(rune(v))
			i += 5
		case strings.HasPrefix(s[i:], `\S\`) && i+4 <= len(s):
			sb.WriteRune(rune(s[i+3]) + 128)
			i += 4
		case strings.HasPrefix(s[i:], `\\`):
			sb.WriteByte('\\')
			i += 2
		default:
			sb.WriteByte(s[i])
			i++
		}
	}
	return sb.String()
}
