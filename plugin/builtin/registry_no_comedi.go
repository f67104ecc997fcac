//go:build !comedi

package builtin

import "github.com/rtsyn-dev/rtsyn/plugin"

func newConditional(kind string) (plugin.Instance, bool) {
	return nil, false
}
