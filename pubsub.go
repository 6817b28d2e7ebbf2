package moonmock

import "slices"

// Publish appends message to the log of channel. Nothing is delivered, so
// the receiver count is always 0.
func (e *Engine) Publish(channel string, message any) int64 {
	e.channels[channel] = append(e.channels[channel], encode(message))
	return 0
}

// Messages returns every message published to channel, oldest first
func (e *Engine) Messages(channel string) []string {
	return slices.Clone(e.channels[channel])
}
