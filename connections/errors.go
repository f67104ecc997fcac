package connections

import "github.com/rtsyn-dev/rtsyn/errors"

// Rule errors returned by AddConnection. Callers compare with errors.Is;
// these never propagate into the tick loop (spec.md §7).
var (
	ErrSelfConnection      = errors.New("connection rule: from_plugin and to_plugin must differ")
	ErrInputLimitExceeded  = errors.New("connection rule: input port already has an incoming connection")
	ErrDuplicateConnection = errors.New("connection rule: identical connection already exists")
)
