package moonmock

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/eternalApril/moonmock/internal/storage"
)

// Error is a Redis-style error that belongs to one or more error classes.
// Use errors.Is with the exported class sentinels to test for a class.
type Error struct {
	msg     string
	classes []error
}

func newError(msg string, classes ...error) *Error {
	return &Error{msg: msg, classes: classes}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() []error { return e.classes }

var (
	// ErrRedis is the generic client misuse class
	ErrRedis = errors.New("redis error")

	// ErrResponse marks server-style protocol misuse. It is also ErrRedis
	ErrResponse = newError("response error", ErrRedis)

	// ErrWatch reports that a watched key changed before EXEC.
	// It is also ErrRedis and matches go-redis' redis.TxFailedErr.
	ErrWatch = newError("watched keys changed", ErrRedis, redis.TxFailedErr)

	ErrInvalidArgument = errors.New("invalid argument")

	ErrWrongType = storage.ErrWrongType
)

var (
	errNotInteger = newError("ERR value is not an integer or out of range", ErrInvalidArgument, ErrResponse)
	errNotFloat   = newError("ERR value is not a valid float", ErrInvalidArgument, ErrResponse)
	errSyntax     = newError("ERR syntax error", ErrInvalidArgument, ErrResponse)
)

func redisErr(msg string) error {
	return newError(msg, ErrRedis)
}

func responseErr(msg string) error {
	return newError(msg, ErrResponse)
}

func invalidArg(msg string) error {
	return newError(msg, ErrInvalidArgument)
}
