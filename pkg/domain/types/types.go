package types

// AppName is the canonical binary/service name
const AppName = "zimsync"

// Version is the application version, overridden at build time via
// -ldflags "-X github.com/apocacache/zimsync/pkg/domain/types.Version=..."
var Version = "0.1.0"
