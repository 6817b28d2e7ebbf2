package resp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TextWriter renders values the way redis-cli prints replies
type TextWriter struct {
	writer *bufio.Writer
}

func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{writer: bufio.NewWriter(w)}
}

func (t *TextWriter) Write(v Value) error {
	return t.write(v, 0)
}

func (t *TextWriter) Flush() error {
	return t.writer.Flush()
}

func (t *TextWriter) Reply(v Value) error {
	if err := t.Write(v); err != nil {
		return err
	}
	return t.Flush()
}

// write prints v; indent is the column at which nested array items start
func (t *TextWriter) write(v Value, indent int) error {
	var err error

	switch v.Kind {
	case KindInteger:
		_, err = fmt.Fprintf(t.writer, "(integer) %d\n", v.Int)

	case KindStatus:
		_, err = fmt.Fprintf(t.writer, "%s\n", v.Str)

	case KindError:
		_, err = fmt.Fprintf(t.writer, "(error) %s\n", v.Str)

	case KindBulk:
		if v.Nil {
			_, err = t.writer.WriteString("(nil)\n")
		} else {
			_, err = fmt.Fprintf(t.writer, "%s\n", strconv.Quote(v.Str))
		}

	case KindArray:
		switch {
		case v.Nil:
			_, err = t.writer.WriteString("(nil)\n")
		case len(v.Elems) == 0:
			_, err = t.writer.WriteString("(empty array)\n")
		default:
			width := len(strconv.Itoa(len(v.Elems)))
			for i, el := range v.Elems {
				prefix := fmt.Sprintf("%*d) ", width, i+1)
				if i > 0 {
					// the first item continues the parent's line
					_, err = t.writer.WriteString(strings.Repeat(" ", indent))
				}
				if err == nil {
					_, err = t.writer.WriteString(prefix)
				}
				if err == nil {
					err = t.write(el, indent+len(prefix))
				}
				if err != nil {
					break
				}
			}
		}

	default:
		err = fmt.Errorf("resp: unknown value kind %v", v.Kind)
	}

	return err
}
