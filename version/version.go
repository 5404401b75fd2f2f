// Package version exposes build metadata injected at link time via -ldflags.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/gosuri/uitable"
)

var (
	// gitVersion is the semantic version, vMAJOR.MINOR.PATCH[-PRERELEASE][+BUILD].
	gitVersion = "v0.0.0-master+$Format:%h$"
	// buildDate is the ISO8601 build timestamp, $(date -u +'%Y-%m-%dT%H:%M:%SZ').
	buildDate = "1970-01-01T00:00:00Z"
	// gitCommit is the output of $(git rev-parse HEAD).
	gitCommit = "$Format:%H$"
	// gitTreeState is "clean" or "dirty" at build time.
	gitTreeState = ""
)

// Info holds the version details of this build.
type Info struct {
	GitVersion   string `json:"gitVersion"`
	GitCommit    string `json:"gitCommit"`
	GitTreeState string `json:"gitTreeState,omitempty"`
	BuildDate    string `json:"buildDate"`
	GoVersion    string `json:"goVersion"`
	Compiler     string `json:"compiler"`
	Platform     string `json:"platform"`
}

func (info Info) String() string {
	if info.GitTreeState == "dirty" {
		return info.GitVersion + "-dirty"
	}
	return info.GitVersion
}

// ToJSON returns the version info as a single JSON line.
func (info Info) ToJSON() (string, error) {
	s, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("failed to marshal version info: %w", err)
	}
	return string(s), nil
}

// Text renders the version info as an aligned table.
func (info Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.MaxColWidth = 80
	table.Separator = " "
	table.AddRow("gitVersion:", info.GitVersion)
	table.AddRow("gitCommit:", info.GitCommit)
	if info.GitTreeState != "" {
		table.AddRow("gitTreeState:", info.GitTreeState)
	}
	table.AddRow("buildDate:", info.BuildDate)
	table.AddRow("goVersion:", info.GoVersion)
	table.AddRow("compiler:", info.Compiler)
	table.AddRow("platform:", info.Platform)

	return table.String()
}

// Get returns the version info of the running binary.
func Get() Info {
	return Info{
		GitVersion:   gitVersion,
		GitCommit:    gitCommit,
		GitTreeState: gitTreeState,
		BuildDate:    buildDate,
		GoVersion:    runtime.Version(),
		Compiler:     runtime.Compiler,
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// UserAgent returns the User-Agent string sent on provider requests.
func UserAgent() string {
	return "platformed-llm/" + gitVersion
}
