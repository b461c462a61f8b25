package policy

import (
	"fmt"
	"strings"
	"testing"

	"github.com/wharflab/sudocore/internal/authz"
	"github.com/wharflab/sudocore/internal/dbsnapshot"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/envfilter"
)

var db = &dbsnapshot.Snapshot{
	Users: []dbsnapshot.User{
		{UID: 0, GID: 0, Name: "root", Home: "/root", Shell: "/bin/sh"},
		{UID: 1000, GID: 1000, Name: "alice", Home: "/home/alice", Shell: "/bin/bash"},
		{UID: 1001, GID: 1001, Name: "bob", Home: "/home/bob", Shell: "/bin/bash"},
	},
	Groups: []dbsnapshot.Group{
		{GID: 0, Name: "root"},
		{GID: 1000, Name: "alice"},
	},
}

func request(t *testing.T, invoker, target, cmd string, args ...string) authz.Request {
	t.Helper()
	iu, ok := db.UserByName(invoker)
	if !ok {
		t.Fatalf("no fixture user %q", invoker)
	}
	tu, ok := db.UserByName(target)
	if !ok {
		t.Fatalf("no fixture user %q", target)
	}
	tg, _ := db.GroupByGID(tu.GID)
	return authz.Request{
		InvokerUser: iu,
		InvokerHost: "buildhost",
		TargetUser:  tu,
		TargetGroup: tg,
		CommandPath: cmd,
		CommandArgs: args,
	}
}

func TestParseEvaluateRoundTrip(t *testing.T) {
	s, err := Parse("root ALL=(ALL:ALL) ALL\n")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	j, _ := Evaluate(s, request(t, "root", "root", "/bin/ls"))
	if !j.Allowed || !j.Flags.Passwd {
		t.Fatalf("expected allow with password, got %+v", j)
	}
}

func TestParseReturnsNoSudoersOnSemanticError(t *testing.T) {
	s, err := Parse("UNDEFINED ALL=(ALL) ALL\n")
	if s != nil {
		t.Fatalf("expected no Sudoers when diagnostics were recorded")
	}
	if err == nil || len(err.Diagnostics) == 0 {
		t.Fatalf("expected an undefined-alias diagnostic, got %v", err)
	}
	if err.Diagnostics[0].Kind != diagnostics.Semantic {
		t.Errorf("expected a semantic diagnostic, got %v", err.Diagnostics[0].Kind)
	}
}

func TestParseFlattensIncludes(t *testing.T) {
	files := map[string]string{
		"/etc/sudoers.d/extra": "alice ALL=(ALL) NOPASSWD: /usr/bin/id\n",
	}
	read := func(path string) (string, error) {
		text, ok := files[path]
		if !ok {
			return "", fmt.Errorf("no such file")
		}
		return text, nil
	}

	s, err := Parse("@include /etc/sudoers.d/extra\n", WithIncludeReader(read))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	j, _ := Evaluate(s, request(t, "alice", "root", "/usr/bin/id"))
	if !j.Allowed || j.Flags.Passwd {
		t.Fatalf("expected the included NOPASSWD grant to apply, got %+v", j)
	}
}

func TestParseIncludeDirSortsAndFilters(t *testing.T) {
	files := map[string]string{
		"/etc/sudoers.d/10-alice": "alice ALL=(ALL) /bin/ls\n",
		"/etc/sudoers.d/20-alice": "alice ALL=(ALL) !/bin/ls\n",
	}
	read := func(path string) (string, error) {
		text, ok := files[path]
		if !ok {
			return "", fmt.Errorf("no such file")
		}
		return text, nil
	}
	list := func(string) ([]string, error) {
		// Deliberately unsorted, plus entries the filename filter must skip.
		return []string{
			"/etc/sudoers.d/20-alice",
			"/etc/sudoers.d/10-alice",
			"/etc/sudoers.d/50-backup~",
			"/etc/sudoers.d/pkg.rpmnew",
		}, nil
	}

	s, err := Parse("@includedir /etc/sudoers.d\n", WithIncludeReader(read), WithIncludeDirLister(list))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	// 20-alice sorts after 10-alice, so its !/bin/ls entry must win.
	j, _ := Evaluate(s, request(t, "alice", "root", "/bin/ls"))
	if j.Allowed {
		t.Fatalf("expected the later include file's negation to win, got %+v", j)
	}
}

func TestParseIncludeCycleIsReported(t *testing.T) {
	files := map[string]string{
		"/a": "@include /b\n",
		"/b": "@include /a\n",
	}
	read := func(path string) (string, error) { return files[path], nil }

	_, err := Parse("@include /a\n", WithIncludeReader(read))
	if err == nil {
		t.Fatalf("expected a cycle diagnostic")
	}
	found := false
	for _, d := range err.Diagnostics {
		if strings.Contains(d.Message, "cycle") {
			found = true
		}
	}
	if !found {
		t.Errorf("no cycle diagnostic among %v", err.Diagnostics)
	}
}

func TestParseIncludeWithoutReaderIsUnsupported(t *testing.T) {
	_, err := Parse("@include /etc/sudoers.local\n")
	if err == nil || err.Diagnostics[0].Kind != diagnostics.Unsupported {
		t.Fatalf("expected an unsupported-include diagnostic, got %v", err)
	}
}

func TestEvaluateScopedDefaults(t *testing.T) {
	src := "Defaults secure_path=/usr/bin\n" +
		"Defaults:alice secure_path=/usr/local/bin\n" +
		"alice ALL=(ALL) ALL\nbob ALL=(ALL) ALL\n"
	s, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	_, effAlice := Evaluate(s, request(t, "alice", "root", "/bin/ls"))
	if got := effAlice.Strings["secure_path"]; got != "/usr/local/bin" {
		t.Errorf("alice's scoped secure_path = %q, want /usr/local/bin", got)
	}
	_, effBob := Evaluate(s, request(t, "bob", "root", "/bin/ls"))
	if got := effBob.Strings["secure_path"]; got != "/usr/bin" {
		t.Errorf("bob's secure_path = %q, want the global /usr/bin", got)
	}
}

func TestBuildEnvironmentUsesEffectiveSettings(t *testing.T) {
	src := "Defaults env_keep += \"EDITOR\"\nDefaults secure_path=/usr/sbin:/usr/bin\nalice ALL=(ALL) ALL\n"
	s, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	req := request(t, "alice", "root", "/bin/ls")
	j, eff := Evaluate(s, req)
	if !j.Allowed {
		t.Fatalf("expected allow, got %+v", j)
	}

	env := BuildEnvironment(
		[]envfilter.EnvVar{{Name: "EDITOR", Value: "vim"}, {Name: "PATH", Value: "/home/alice/bin"}, {Name: "FOO", Value: "bar"}},
		envfilter.Context{Invoker: req.InvokerUser, Target: req.TargetUser, CommandPath: req.CommandPath},
		eff,
	)
	vars := map[string]string{}
	for _, v := range env {
		vars[v.Name] = v.Value
	}
	if vars["EDITOR"] != "vim" {
		t.Errorf("EDITOR = %q, want vim via the folded env_keep", vars["EDITOR"])
	}
	if vars["PATH"] != "/usr/sbin:/usr/bin" {
		t.Errorf("PATH = %q, want the folded secure_path", vars["PATH"])
	}
	if _, ok := vars["FOO"]; ok {
		t.Errorf("FOO must not survive the filter")
	}
	if vars["SUDO_COMMAND"] != "/bin/ls" {
		t.Errorf("SUDO_COMMAND = %q, want /bin/ls", vars["SUDO_COMMAND"])
	}
}

func TestLintReportsWithoutBuilding(t *testing.T) {
	if diags := Lint("alice ALL=(ALL) ALL\n"); diags != nil {
		t.Fatalf("clean policy should lint clean, got %v", diags)
	}
	if diags := Lint("alice ALL=\n"); diags == nil {
		t.Fatalf("expected a parse diagnostic for the truncated line")
	}
}
