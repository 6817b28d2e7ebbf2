package resp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// Append appends the wire encoding of v to dst. Status and error payloads
// are kept on one line.
func Append(dst []byte, v Value) ([]byte, error) {
	switch v.Kind {
	case KindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, v.Int, 10)

	case KindStatus, KindError:
		dst = append(dst, byte(v.Kind))
		dst = append(dst, lineBreaks.Replace(v.Str)...)

	case KindBulk:
		if v.Nil {
			return append(dst, "$-1\r\n"...), nil
		}
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(v.Str)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, v.Str...)

	case KindArray:
		if v.Nil {
			return append(dst, "*-1\r\n"...), nil
		}
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(v.Elems)), 10)
		dst = append(dst, '\r', '\n')
		for _, el := range v.Elems {
			var err error
			if dst, err = Append(dst, el); err != nil {
				return dst, err
			}
		}
		return dst, nil

	default:
		return dst, fmt.Errorf("resp: unknown value kind %v", v.Kind)
	}

	return append(dst, '\r', '\n'), nil
}

// Encoder writes replies in wire format.
// Output is buffered; call Flush once a reply is complete, or use Reply.
type Encoder struct {
	writer *bufio.Writer
	buf    []byte
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{writer: bufio.NewWriter(w)}
}

// Write encodes v into the buffer. Nothing is buffered when v cannot be encoded.
func (e *Encoder) Write(v Value) error {
	b, err := Append(e.buf[:0], v)
	if err != nil {
		return err
	}
	e.buf = b
	_, err = e.writer.Write(b)
	return err
}

func (e *Encoder) Flush() error {
	return e.writer.Flush()
}

// Reply writes v and flushes it
func (e *Encoder) Reply(v Value) error {
	if err := e.Write(v); err != nil {
		return err
	}
	return e.Flush()
}
