package rundata

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	gitv5 "github.com/go-git/go-git/v5"
	"github.com/golang/glog"
)

var timeBegin = time.Now()

func recordBuild(m map[string]string) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		glog.Warning("No build info in the binary.")
		return
	}
	for k, v := range map[string]string{
		"build.go_version":   bi.GoVersion,
		"build.path":         bi.Path,
		"build.main.path":    bi.Main.Path,
		"build.main.version": bi.Main.Version,
		"build.main.sum":     bi.Main.Sum,
	} {
		m[k] = v
	}
	for _, s := range bi.Settings {
		m["build.settings."+s.Key] = s.Value
	}
}

// gitState is what a run records about the checkout it runs from.
type gitState struct {
	origin    string
	commit    string
	committed time.Time
	status    string
	clean     bool
}

// readGit reads the state of repo. Parts that cannot be read are left
// empty and reported in the returned error.
func readGit(repo *gitv5.Repository) (*gitState, error) {
	g := &gitState{}
	var errs []error

	if remote, err := repo.Remote("origin"); err != nil {
		errs = append(errs, fmt.Errorf("origin: %w", err))
	} else if urls := remote.Config().URLs; len(urls) == 0 {
		errs = append(errs, errors.New("origin has no URLs"))
	} else {
		// Fetches use the first URL.
		g.origin = urls[0]
	}

	if head, err := repo.Head(); err != nil {
		errs = append(errs, fmt.Errorf("HEAD: %w", err))
	} else if c, err := repo.CommitObject(head.Hash()); err != nil {
		errs = append(errs, fmt.Errorf("HEAD commit: %w", err))
	} else {
		g.commit, g.committed = c.Hash.String(), c.Committer.When
	}

	if wt, err := repo.Worktree(); err != nil {
		errs = append(errs, fmt.Errorf("worktree: %w", err))
	} else if st, err := wt.Status(); err != nil {
		errs = append(errs, fmt.Errorf("status: %w", err))
	} else {
		g.status, g.clean = st.String(), st.IsClean()
	}
	return g, errors.Join(errs...)
}

func (g *gitState) record(m map[string]string) {
	if g.origin != "" {
		m["git.origin"] = g.origin
	}
	if g.commit != "" {
		m["git.commit"] = g.commit
		m["git.commit_timestamp"] = strconv.FormatInt(g.committed.Unix(), 10)
	}
	if g.status != "" || g.clean {
		m["git.status"] = g.status
		m["git.clean"] = strconv.FormatBool(g.clean)
	}
}

func recordGit(m map[string]string, repo *gitv5.Repository) {
	g, err := readGit(repo)
	if err != nil {
		glog.Warningf("Incomplete git properties: %v", err)
	}
	g.record(m)
}

// recordCheckout records the git state of the checkout holding the working
// directory. Runs outside a checkout record nothing.
func recordCheckout(m map[string]string) {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	repo, err := gitv5.PlainOpenWithOptions(cwd, &gitv5.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return
	}
	recordGit(m, repo)
}

// local records the properties that do not depend on the settings.
func local(m map[string]string) {
	recordBuild(m)
	recordCheckout(m)
	m["time.begin"] = strconv.FormatInt(timeBegin.Unix(), 10)
	m["time.end"] = strconv.FormatInt(time.Now().Unix(), 10)
}
