package client

import "errors"

// ErrConnection covers handshake failures where the server never came up
// properly: dial retries exhausted, missing dummy byte, empty device name.
var ErrConnection = errors.New("connection failed")

// ErrProtocol covers malformed or truncated handshake framing.
var ErrProtocol = errors.New("protocol framing error")

// ErrNotCreated is returned by Start on a session that already started or
// stopped. Sessions are single-use; build a new one to reconnect.
var ErrNotCreated = errors.New("session already started")
