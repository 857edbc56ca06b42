package domain

import "errors"

var (
	// ErrAlreadyRegistered is returned when Register is called twice for the
	// same connection. The connection stays usable.
	ErrAlreadyRegistered = errors.New("connection already registered")

	// ErrNotRegistered is returned for hub operations on a connection whose
	// registration never completed.
	ErrNotRegistered = errors.New("connection not registered")

	// ErrUnauthenticated is returned when a bearer credential does not
	// resolve to an identity. No hub state is touched.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStoreUnavailable wraps persistence failures. The send is dropped
	// and the connection stays up.
	ErrStoreUnavailable = errors.New("message store unavailable")

	// ErrEmptyMessage rejects empty or whitespace-only message bodies.
	ErrEmptyMessage = errors.New("message body is empty")

	// ErrMessageTooLong rejects bodies over the configured rune limit.
	ErrMessageTooLong = errors.New("message body exceeds limit")

	// ErrNoActiveRoom is returned for send/typing events from a connection
	// that has not joined a room.
	ErrNoActiveRoom = errors.New("connection has not joined a room")
)
