package feed

import "time"

// Kind classifies the current token.
type Kind uint8

const (
	KindNone        Kind = iota
	KindObjectStart      // '{'
	KindObjectEnd        // '}'
	KindArrayStart       // '['
	KindArrayEnd         // ']'
	KindString           // "..." payload excludes the quotes
	KindProperty         // ':' payload is the preceding string (the property name)
	KindValue            // bare run: number, boolean or null
)

// Reader is a low-allocation tokenizer over one raw stream line. It
// recognizes only the punctuation the market-change schema uses
// ({ } [ ] " :), treats whitespace and commas as separators, and does
// no escape processing — the feed is a controlled schema that never
// emits escaped quotes.
//
// Bytes returns a borrowed view into the input buffer, valid only
// until the next Advance. Callers must copy anything they store.
type Reader struct {
	buf  []byte
	pos  int
	kind Kind

	start, end         int // current token payload [start:end)
	nameStart, nameEnd int // most recent string token, reported at ':'
}

// NewReader returns a reader positioned before the first token of buf.
func NewReader(buf []byte) Reader {
	return Reader{buf: buf}
}

// Reset repositions the reader over a new buffer, reusing the value.
func (r *Reader) Reset(buf []byte) {
	r.buf = buf
	r.pos = 0
	r.kind = KindNone
	r.start, r.end = 0, 0
	r.nameStart, r.nameEnd = 0, 0
}

func isSeparator(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ','
}

func isStructural(c byte) bool {
	switch c {
	case '{', '}', '[', ']', '"', ':':
		return true
	}
	return isSeparator(c)
}

// Advance moves to the next token. It returns false at end of buffer.
func (r *Reader) Advance() bool {
	for r.pos < len(r.buf) && isSeparator(r.buf[r.pos]) {
		r.pos++
	}
	if r.pos >= len(r.buf) {
		r.kind = KindNone
		r.start, r.end = len(r.buf), len(r.buf)
		return false
	}

	switch c := r.buf[r.pos]; c {
	case '{':
		r.token(KindObjectStart)
	case '}':
		r.token(KindObjectEnd)
	case '[':
		r.token(KindArrayStart)
	case ']':
		r.token(KindArrayEnd)
	case '"':
		r.pos++
		s := r.pos
		for r.pos < len(r.buf) && r.buf[r.pos] != '"' {
			r.pos++
		}
		r.kind = KindString
		r.start, r.end = s, r.pos
		r.nameStart, r.nameEnd = s, r.pos
		if r.pos < len(r.buf) {
			r.pos++ // closing quote
		}
	case ':':
		// Property-name boundary: report the string just read.
		r.kind = KindProperty
		r.start, r.end = r.nameStart, r.nameEnd
		r.pos++
	default:
		s := r.pos
		for r.pos < len(r.buf) && !isStructural(r.buf[r.pos]) {
			r.pos++
		}
		r.kind = KindValue
		r.start, r.end = s, r.pos
	}
	return true
}

func (r *Reader) token(k Kind) {
	r.kind = k
	r.start, r.end = r.pos, r.pos+1
	r.pos++
}

// Kind returns the kind of the current token.
func (r *Reader) Kind() Kind { return r.kind }

// Bytes returns the payload of the current token as a borrowed view,
// valid only until the next Advance.
func (r *Reader) Bytes() []byte { return r.buf[r.start:r.end] }

// Int64 parses the current token as a signed integer, straight off the
// token bytes. Malformed input degrades to the digits parsed so far.
func (r *Reader) Int64() int64 {
	b := r.Bytes()
	var v int64
	neg := false
	i := 0
	if len(b) > 0 && (b[0] == '-' || b[0] == '+') {
		neg = b[0] == '-'
		i++
	}
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + int64(c-'0')
	}
	if neg {
		return -v
	}
	return v
}

// Int32 parses the current token as a 32-bit integer.
func (r *Reader) Int32() int32 { return int32(r.Int64()) }

// Float64 parses the current token as a decimal number, straight off
// the token bytes, without intermediate string allocation. The schema
// never uses exponent notation. Malformed input degrades to the value
// parsed so far.
func (r *Reader) Float64() float64 {
	b := r.Bytes()
	var intPart int64
	neg := false
	i := 0
	if len(b) > 0 && (b[0] == '-' || b[0] == '+') {
		neg = b[0] == '-'
		i++
	}
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			break
		}
		intPart = intPart*10 + int64(c-'0')
	}
	v := float64(intPart)
	if i < len(b) && b[i] == '.' {
		i++
		frac := int64(0)
		scale := 1.0
		for ; i < len(b); i++ {
			c := b[i]
			if c < '0' || c > '9' {
				break
			}
			frac = frac*10 + int64(c-'0')
			scale *= 10
		}
		v += float64(frac) / scale
	}
	if neg {
		return -v
	}
	return v
}

// Bool reports whether the current token is the literal true.
func (r *Reader) Bool() bool {
	b := r.Bytes()
	return len(b) > 0 && b[0] == 't'
}

// isoLayout is the fixed-width form dates are padded to before parsing.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Time parses the current token as the feed's truncated ISO-8601
// date-time (e.g. "2030-04-01T13:00:00.0Z"), padding the fractional
// seconds to three digits first. Parse failures degrade to the zero
// time.
func (r *Reader) Time() time.Time {
	b := r.Bytes()
	if len(b) < len("2006-01-02T15:04:05") || len(b) > len(isoLayout) {
		return time.Time{}
	}

	var padded [len(isoLayout)]byte
	n := len(b)
	if b[n-1] == 'Z' {
		n--
	}
	copy(padded[:], b[:n])
	if n == len("2006-01-02T15:04:05") {
		padded[n] = '.'
		n++
	}
	for n < len(isoLayout)-1 {
		padded[n] = '0'
		n++
	}
	padded[len(isoLayout)-1] = 'Z'

	t, err := time.Parse(isoLayout, string(padded[:]))
	if err != nil {
		return time.Time{}
	}
	return t
}
