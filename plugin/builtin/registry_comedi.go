//go:build comedi

package builtin

import "github.com/rtsyn-dev/rtsyn/plugin"

func newConditional(kind string) (plugin.Instance, bool) {
	if kind == "comedi_daq" {
		return NewComediDaq(), true
	}
	return nil, false
}
