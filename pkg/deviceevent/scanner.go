package deviceevent

import "strings"

// scanner walks the controller's "Tag{key=value, key=Tag{...}}" dump one
// delimiter at a time. It never indexes past the end of src; a missing
// delimiter is reported as a *MalformedEventError at the offset where the
// scan stopped.
type scanner struct {
	src string
	pos int
}

// scan advances to the first byte of want and returns the text consumed.
// Hitting any byte of stop, or the end of input, first is an error naming
// expected as the missing delimiter.
func (s *scanner) scan(want, stop string, expected byte) (string, byte, error) {
	start := s.pos
	for i := s.pos; i < len(s.src); i++ {
		c := s.src[i]
		if strings.IndexByte(want, c) >= 0 {
			s.pos = i + 1
			return s.src[start:i], c, nil
		}
		if strings.IndexByte(stop, c) >= 0 {
			return "", 0, s.fail(i, expected)
		}
	}
	return "", 0, s.fail(len(s.src), expected)
}

// open consumes an object prefix up to and including '{' and returns the
// trimmed tag. Bytes in stop may not appear in the prefix.
func (s *scanner) open(stop string) (string, error) {
	tag, _, err := s.scan("{", stop, '{')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(tag), nil
}

// key consumes "key=" and returns the trimmed key.
func (s *scanner) key() (string, error) {
	k, _, err := s.scan("=", ",{}", '=')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(k), nil
}

// value consumes a scalar terminated by ',' and returns it trimmed. Values may
// not contain braces, so reaching one first means the ',' is missing.
func (s *scanner) value() (string, error) {
	v, _, err := s.scan(",", "{}", ',')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func (s *scanner) fail(offset int, delim byte) error {
	return &MalformedEventError{
		Offset:    offset,
		Delimiter: delim,
		Fragment:  fragment(s.src, offset),
	}
}

const fragmentWidth = 24

func fragment(src string, offset int) string {
	start := offset - fragmentWidth/2
	if start < 0 {
		start = 0
	}
	end := start + fragmentWidth
	if end > len(src) {
		end = len(src)
	}
	if start > end {
		start = end
	}
	return src[start:end]
}
