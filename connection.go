package moonmock

func (e *Engine) Echo(msg any) string {
	return encode(msg)
}

func (e *Engine) Ping() string {
	return "PONG"
}
