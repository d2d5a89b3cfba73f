// Package rundata collects the runtime data of a suite run.
//
// The values collected are:
//
//   - build.go_version - from runtime/debug.BuildInfo.GoVersion
//   - build.path - from runtime/debug.BuildInfo.Path
//   - build.main.path - from runtime/debug.BuildInfo.Main.Path
//   - build.main.version - from runtime/debug.BuildInfo.Main.Version
//   - build.main.sum - from runtime/debug.BuildInfo.Main.Sum
//   - For each build setting obtained from runtime/debug.BuildInfo.Settings:
//     build.settings.key - the key and the value from runtime/debug.BuildSetting.
//     Note: vcs details are missing when run from a git local working directory.
//     This is why we include the git properties below.
//   - git.commit - git commit hash of the working directory, shown by git show -s --format=%H.
//   - git.commit_timestamp - git commit timestamp, shown by
//     git show -s --format=%ct (in Unix epoch seconds).
//   - git.origin - the output of git config --get remote.origin.url.
//   - git.clean - true if the current working directory is clean
//     (i.e. the output of git status --short is empty), or false otherwise.
//   - git.status - the output of git status --short which should be empty
//     if the working directory is clean.
//   - controller.location, controller.transport - where the controller
//     was reached.
//   - topology - the test ports in order, formatted as a comma separated
//     list of locations, e.g. "localhost:5555,localhost:5556".
//   - known_issue_url - set by the --known_issue_url flag.
//   - time.begin, time.end - Unix time the process started and the
//     properties were collected.
package rundata

import (
	"flag"
	"strings"

	"github.com/open-traffic-generator/snappi-tests/internal/settings"
)

var (
	knownIssueURL = flag.String("known_issue_url", "", "Report a known issue that explains why the run fails.  This should be a URL to the issue tracker.")
)

func topology(s *settings.Settings) string {
	return strings.Join(s.Ports, ",")
}

// Properties builds the run properties from the local environment and the
// settings of the run. A nil s only yields the local properties.
func Properties(s *settings.Settings) map[string]string {
	m := make(map[string]string)
	local(m)

	if *knownIssueURL != "" {
		m["known_issue_url"] = *knownIssueURL
	}

	if s == nil {
		return m
	}
	m["controller.location"] = s.Location
	m["controller.transport"] = s.Transport
	m["topology"] = topology(s)
	return m
}
