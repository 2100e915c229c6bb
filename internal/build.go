package internal

import (
	"runtime/debug"
	"time"
)

// Build information read from the vcs settings embedded by the go toolchain.
var (
	BuildRevision      = "unknown"
	BuildRevisionTime  = time.Time{}
	BuildLocalModified = false
)

// Version returns a short form of the build revision, suffixed with
// "-dirty" when the binary was built from a modified working tree.
func Version() string {
	v := BuildRevision
	if len(v) > 12 {
		v = v[:12]
	}

	if BuildLocalModified {
		v += "-dirty"
	}

	return v
}

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			BuildRevision = setting.Value
		case "vcs.time":
			t, err := time.Parse(time.RFC3339, setting.Value)
			if err != nil {
				continue
			}
			BuildRevisionTime = t
		case "vcs.modified":
			BuildLocalModified = setting.Value == "true"
		}
	}
}
