// Package version reports build version information.
//
// Version, git commit, and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/freemocap/skellysubs/version.Version=1.0.0"
//
// When not set, values are recovered from the embedded VCS build info.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the version payload served by the /version endpoint.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	IsRelease bool   `json:"is_release"`
	IsDirty   bool   `json:"is_dirty"`
}

// GetVersionInfo assembles version info from ldflags values, falling back to
// the VCS metadata Go embeds in the binary.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		IsRelease: Version != "dev" && !strings.Contains(Version, "dirty"),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = buildInfo.GoVersion
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = shortCommit(setting.Value)
				}
			case "vcs.modified":
				info.IsDirty = setting.Value == "true"
			case "vcs.time":
				if info.BuildTime == "" {
					if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
						info.BuildTime = t.UTC().Format(time.RFC3339)
					}
				}
			}
		}
	}

	return info
}

// GetShortVersion returns "version" or "version-commit[-dirty]".
func GetShortVersion() string {
	info := GetVersionInfo()
	if info.GitCommit == "" {
		return info.Version
	}
	v := info.Version + "-" + shortCommit(info.GitCommit)
	if info.IsDirty {
		v += "-dirty"
	}
	return v
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
