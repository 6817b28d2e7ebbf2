package moonmock

import (
	"github.com/eternalApril/moonmock/internal/glob"
)

// ConfigSet stores a server parameter. Parameters are kept verbatim and
// have no effect on the engine.
func (e *Engine) ConfigSet(name string, value any) {
	e.params[name] = encode(value)
}

// ConfigGet returns the parameters whose names match pattern
func (e *Engine) ConfigGet(pattern string) (map[string]string, error) {
	re, err := glob.Compile(pattern)
	if err != nil {
		return nil, invalidArg("ERR invalid pattern: " + err.Error())
	}
	out := make(map[string]string)
	for name, v := range e.params {
		if re.MatchString(name) {
			out[name] = v
		}
	}
	return out, nil
}
