package rundata

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	gitv5 "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/open-traffic-generator/snappi-tests/internal/settings"
)

func TestTopology(t *testing.T) {
	cases := []struct {
		name  string
		ports []string
		want  string
	}{{
		name: "empty",
		want: "",
	}, {
		name:  "b2b",
		ports: []string{"localhost:5555", "localhost:5556"},
		want:  "localhost:5555,localhost:5556",
	}, {
		name:  "chassis",
		ports: []string{"10.39.65.230;5;1", "10.39.65.230;5;2", "10.39.65.230;5;3"},
		want:  "10.39.65.230;5;1,10.39.65.230;5;2,10.39.65.230;5;3",
	}}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := topology(&settings.Settings{Ports: c.ports})
			if got != c.want {
				t.Errorf("topology got %q, want %q", got, c.want)
			}
		})
	}
}

func TestProperties(t *testing.T) {
	*knownIssueURL = "https://example.com"
	defer func() { *knownIssueURL = "" }()

	got := Properties(&settings.Settings{
		Location:  "localhost:40051",
		Transport: settings.TransportGRPC,
		Ports:     []string{"p1", "p2"},
	})
	t.Log(got)

	for wantk, wantv := range map[string]string{
		"controller.location":  "localhost:40051",
		"controller.transport": "grpc",
		"topology":             "p1,p2",
		"known_issue_url":      "https://example.com",
	} {
		if gotv := got[wantk]; gotv != wantv {
			t.Errorf("Property %s got %q, want %q", wantk, gotv, wantv)
		}
	}

	for _, wantk := range []string{
		"time.begin",
		"time.end",
	} {
		if _, ok := got[wantk]; !ok {
			t.Errorf("Missing key from Properties: %s", wantk)
		}
	}
}

func TestPropertiesWithoutSettings(t *testing.T) {
	got := Properties(nil)
	if _, ok := got["topology"]; ok {
		t.Errorf("Properties(nil) got topology %q, want none", got["topology"])
	}
	if _, ok := got["time.end"]; !ok {
		t.Error("Missing key from Properties: time.end")
	}
}

func TestRecordGit(t *testing.T) {
	repo, err := gitv5.InitWithOptions(memory.NewStorage(), memfs.New(), gitv5.InitOptions{DefaultBranch: plumbing.Main})
	if err != nil {
		t.Fatalf("Failed to create repo: %v", err)
	}
	if _, err := repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://github.com/open-traffic-generator/snappi-tests"},
	}); err != nil {
		t.Fatalf("Failed to create remote: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}
	f, err := wt.Filesystem.Create("settings.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(`{"ports": []}`)); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if _, err := wt.Add("settings.json"); err != nil {
		t.Fatal(err)
	}
	when := time.Unix(1700000000, 0)
	sig := &object.Signature{Name: "go-git", Email: "go-git@fake.local", When: when}
	hash, err := wt.Commit("add settings", &gitv5.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	m := map[string]string{}
	recordGit(m, repo)

	for wantk, wantv := range map[string]string{
		"git.origin":           "https://github.com/open-traffic-generator/snappi-tests",
		"git.commit":           hash.String(),
		"git.commit_timestamp": "1700000000",
		"git.clean":            "true",
	} {
		if gotv := m[wantk]; gotv != wantv {
			t.Errorf("Property %s got %q, want %q", wantk, gotv, wantv)
		}
	}
}

func TestReadGitEmptyRepo(t *testing.T) {
	repo, err := gitv5.Init(memory.NewStorage(), memfs.New())
	if err != nil {
		t.Fatalf("Failed to create repo: %v", err)
	}
	g, err := readGit(repo)
	if err == nil {
		t.Error("readGit got nil error for a repo without origin or commits")
	}
	m := map[string]string{}
	g.record(m)
	for _, k := range []string{"git.origin", "git.commit"} {
		if v, ok := m[k]; ok {
			t.Errorf("Property %s got %q, want unset", k, v)
		}
	}
	if got := m["git.clean"]; got != "true" {
		t.Errorf("Property git.clean got %q, want %q", got, "true")
	}
}
