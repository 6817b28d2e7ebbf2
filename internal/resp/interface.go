package resp

// Writer renders replies to an output. Output may be buffered until Flush;
// Reply writes and flushes a single reply.
type Writer interface {
	Write(v Value) error
	Flush() error
	Reply(v Value) error
}
