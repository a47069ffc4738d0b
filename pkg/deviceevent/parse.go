package deviceevent

import "strings"

// Object is one "Tag{...}" level of a dump.
type Object struct {
	Tag    string  `json:"tag"`
	Fields []Field `json:"fields"`
}

// Field holds either a scalar Value or a nested Object.
type Field struct {
	Key    string  `json:"key"`
	Value  string  `json:"value,omitempty"`
	Object *Object `json:"object,omitempty"`
}

func (o *Object) Get(key string) (Field, bool) {
	for _, f := range o.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Parse reads the whole dump into a tree. Unlike Extract it accepts any field
// order and nesting depth, and requires every object to be closed. Only
// whitespace may follow the outer '}'.
func Parse(raw string) (*Object, error) {
	s := &scanner{src: raw}

	tag, err := s.open("")
	if err != nil {
		return nil, err
	}

	obj, err := parseObject(s, tag)
	if err != nil {
		return nil, err
	}

	if rest := strings.TrimSpace(s.src[s.pos:]); rest != "" {
		return nil, s.fail(s.pos, '}')
	}
	return obj, nil
}

// parseObject is entered just past the '{' of an object and returns just past
// its closing '}'.
func parseObject(s *scanner, tag string) (*Object, error) {
	obj := &Object{Tag: tag}

	if closeEmpty(s) {
		return obj, nil
	}

	for {
		key, err := s.key()
		if err != nil {
			return nil, err
		}

		text, delim, err := s.scan(",}{", "", '}')
		if err != nil {
			return nil, err
		}

		f := Field{Key: key}
		if delim == '{' {
			nested, err := parseObject(s, strings.TrimSpace(text))
			if err != nil {
				return nil, err
			}
			f.Object = nested

			_, delim, err = s.scan(",}", "{=", '}')
			if err != nil {
				return nil, err
			}
		} else {
			f.Value = strings.TrimSpace(text)
		}
		obj.Fields = append(obj.Fields, f)

		if delim == '}' {
			return obj, nil
		}
	}
}

// closeEmpty consumes "}" when the object has no fields.
func closeEmpty(s *scanner) bool {
	i := s.pos
	for i < len(s.src) && (s.src[i] == ' ' || s.src[i] == '\t') {
		i++
	}
	if i < len(s.src) && s.src[i] == '}' {
		s.pos = i + 1
		return true
	}
	return false
}

// String renders the object back in dump form with normalized spacing.
func (o *Object) String() string {
	var b strings.Builder
	o.write(&b)
	return b.String()
}

func (o *Object) write(b *strings.Builder) {
	b.WriteString(o.Tag)
	b.WriteByte('{')
	for i, f := range o.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		if f.Object != nil {
			f.Object.write(b)
		} else {
			b.WriteString(f.Value)
		}
	}
	b.WriteByte('}')
}
