// Package scanners contains the deterministic sub-scanners that turn a
// parsed email into suspicious-content indicators. Each scanner honours the
// extractor's contract: it reports its own failure through the ok return
// instead of panicking up the pipeline.
package scanners

import (
	"github.com/user/phishguard/pkg/engine"
)

// guard runs a scan body and converts any panic into a (nil, false) result
// so a single misbehaving scanner cannot abort the extraction pass.
func guard(fn func() []engine.Indicator) (indicators []engine.Indicator, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			indicators = nil
			ok = false
		}
	}()
	return fn(), true
}

// Default returns the full scanner set in the order the extractor runs them.
func Default() []engine.Scanner {
	return []engine.Scanner{
		URLScanner{},
		AttachmentScanner{},
		AddressScanner{},
		ContentScanner{},
		HeaderScanner{},
	}
}
