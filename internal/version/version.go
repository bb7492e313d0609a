// Package version carries build metadata injected with -ldflags, e.g.
// -X github.com/medara-io/medara-e2e/internal/version.Version=v1.2.0.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string `yaml:"version"`
	GitCommit string `yaml:"git_commit"`
	BuildDate string `yaml:"build_date"`
	GoVersion string `yaml:"go_version"`
}

// Get returns the metadata linked into this binary.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// String renders "dev (unknown, built unknown with go1.24.x)".
func (i Info) String() string {
	return fmt.Sprintf("%s (%s, built %s with %s)", i.Version, i.GitCommit, i.BuildDate, i.GoVersion)
}
