package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eternalApril/moonmock"
	"github.com/eternalApril/moonmock/internal/resp"
)

var errQuit = errors.New("quit")

// statusCommands reply +OK where the engine returns true
var statusCommands = map[string]bool{
	"set": true, "mset": true, "hmset": true, "setex": true, "psetex": true,
	"rename": true, "flushdb": true, "ltrim": true, "lset": true,
	"watch": true, "unwatch": true, "multi": true, "discard": true,
	"config": true, "script": true,
}

// shell feeds text commands to an engine. WATCH or MULTI open a session
// pipeline that lives until EXEC or DISCARD.
type shell struct {
	engine *moonmock.Engine
	out    resp.Writer
	reg    *prometheus.Registry
	tx     *moonmock.Pipeline
}

func newShell(engine *moonmock.Engine, out resp.Writer, reg *prometheus.Registry) *shell {
	return &shell{engine: engine, out: out, reg: reg}
}

// run executes one command per input line until EOF or .quit
func (s *shell) run(in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		err := s.line(line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return sc.Err()
}

func (s *shell) line(line string) error {
	if strings.HasPrefix(line, ".") {
		return s.meta(line)
	}

	words, err := tokenize(line)
	if err != nil {
		return s.reply(resp.Err("ERR " + err.Error()))
	}
	return s.execute(words[0], words[1:])
}

func (s *shell) meta(line string) error {
	switch line {
	case ".quit", ".exit":
		return errQuit
	case ".sweep":
		return s.reply(resp.Int(s.engine.DoExpire()))
	case ".stats":
		return s.reply(resp.Strings(s.stats()))
	case ".help":
		return s.reply(resp.Strings([]string{
			".sweep  remove expired keys",
			".stats  keyspace and command counters",
			".quit   leave the shell",
		}))
	}
	return s.reply(resp.Err(fmt.Sprintf("ERR unknown shell command '%s'", line)))
}

// execute runs one command and writes its reply
func (s *shell) execute(name string, words []string) error {
	args := make([]any, len(words))
	for i, w := range words {
		args[i] = w
	}

	var (
		res any
		err error
		cmd = strings.ToLower(name)
	)
	switch {
	case s.tx == nil && (cmd == "watch" || cmd == "multi"):
		s.tx = s.engine.Pipeline()
		fallthrough
	case s.tx != nil:
		res, err = s.tx.Call(name, args...)
		if cmd == "exec" || cmd == "discard" {
			s.tx = nil
		}
	default:
		res, err = s.engine.Call(name, args...)
	}

	if _, ok := res.(*moonmock.Pipeline); ok {
		return s.reply(resp.Queued)
	}
	if err == nil && res == true && statusCommands[cmd] {
		return s.reply(resp.OK)
	}
	return s.reply(resp.FromResult(res, err))
}

func (s *shell) reply(v resp.Value) error {
	return s.out.Reply(v)
}

// stats summarizes the keyspace and, when metrics are enabled, the counters
func (s *shell) stats() []string {
	out := []string{fmt.Sprintf("keys:%d", s.engine.DBSize())}
	if s.reg == nil {
		return out
	}

	families, err := s.reg.Gather()
	if err != nil {
		return append(out, "metrics_error:"+err.Error())
	}

	for _, f := range families {
		var total float64
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		out = append(out, fmt.Sprintf("%s:%g", f.GetName(), total))
	}
	return out
}

// tokenize splits a command line on whitespace. Double quotes allow
// backslash escapes, single quotes are taken literally.
func tokenize(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   byte
		escaped bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			switch c {
			case 'n':
				cur.WriteByte('\n')
			case 't':
				cur.WriteByte('\t')
			default:
				cur.WriteByte(c)
			}
			escaped = false
		case quote != 0:
			switch {
			case c == quote:
				quote = 0
			case c == '\\' && quote == '"':
				escaped = true
			default:
				cur.WriteByte(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inWord = true
		case c == ' ' || c == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteByte(c)
			inWord = true
		}
	}

	if quote != 0 || escaped {
		return nil, errors.New("unbalanced quotes")
	}
	if inWord {
		words = append(words, cur.String())
	}
	if len(words) == 0 {
		return nil, errors.New("empty command")
	}
	return words, nil
}
