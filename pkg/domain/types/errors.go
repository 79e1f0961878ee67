package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify sync failures. The class decides how the pass
// reacts: discovery and transport failures are retried or skipped,
// integrity failures are retried but logged distinctly, store failures
// abort the pass.
var (
	// TagDiscovery marks unreachable or malformed listing/metadata documents
	TagDiscovery = goerr.NewTag("discovery")

	// TagTransport marks connection errors, timeouts and non-success statuses
	TagTransport = goerr.NewTag("transport")

	// TagIntegrity marks digest mismatches (corrupt mirror, not unreachable mirror)
	TagIntegrity = goerr.NewTag("integrity")

	// TagStore marks state-store failures; these are fatal to a pass
	TagStore = goerr.NewTag("store")

	// TagConfig marks invalid configuration detected at pass start
	TagConfig = goerr.NewTag("config")
)
