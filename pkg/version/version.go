package version

import (
	"runtime/debug"
	"sync"
)

// Set at build time with -ldflags "-X github.com/winlab/netconflogger/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var fillOnce sync.Once

// fill takes the commit and date from the embedded VCS stamp when the linker
// did not set them, as with a plain go install.
func fill() {
	fillOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if Commit == "unknown" && len(s.Value) >= 12 {
					Commit = s.Value[:12]
				}
			case "vcs.time":
				if Date == "unknown" {
					Date = s.Value
				}
			}
		}
	})
}

func Full() string {
	fill()
	return Version + " (" + Commit + ") built on " + Date
}

func Short() string {
	fill()
	return Version
}
