package feed

import "bytes"

// endSentinel is returned by NextProperty at end of buffer.
var endSentinel = []byte("end")

// PropertyEquals reports whether the current token is a property-name
// boundary whose name equals key.
func PropertyEquals(r *Reader, key []byte) bool {
	return r.Kind() == KindProperty && bytes.Equal(r.Bytes(), key)
}

// ValueEquals reports whether the current token's payload equals val.
func ValueEquals(r *Reader, val []byte) bool {
	k := r.Kind()
	return (k == KindString || k == KindValue) && bytes.Equal(r.Bytes(), val)
}

// PropertyValueEquals checks the property name, advances once, and
// checks the following value.
func PropertyValueEquals(r *Reader, key, val []byte) bool {
	if !PropertyEquals(r, key) {
		return false
	}
	if !r.Advance() {
		return false
	}
	return ValueEquals(r, val)
}

// NextProperty advances to the next property-name boundary and returns
// its name, or the sentinel "end" at end of buffer.
func NextProperty(r *Reader) []byte {
	for r.Advance() {
		if r.Kind() == KindProperty {
			return r.Bytes()
		}
	}
	return endSentinel
}

// EndOfObject tracks object nesting over the current token: depth is
// incremented on start-of-object, decremented on end-of-object, and the
// walk is over when it returns to zero. Brace counting bounds a
// decoder's walk over one object without a token stack, and makes the
// walk skip safely over unrecognized nested values.
func EndOfObject(r *Reader, depth *int) bool {
	switch r.Kind() {
	case KindObjectStart:
		*depth++
	case KindObjectEnd:
		*depth--
		return *depth == 0
	}
	return false
}
