package dbsnapshot

import "testing"

const fixture = `{
  "users": [
    {"uid": 0, "gid": 0, "name": "root", "home": "/root", "shell": "/bin/sh"},
    {"uid": 1001, "gid": 1001, "name": "bob", "home": "/home/bob", "shell": "/bin/bash"}
  ],
  "groups": [
    {"gid": 0, "name": "root"},
    {"gid": 1001, "name": "bob"},
    {"gid": 2000, "name": "wheel", "members": ["bob"]}
  ]
}`

func TestLoadResolvesGroupMembership(t *testing.T) {
	snap, err := Load([]byte(fixture))
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	bob, ok := snap.UserByName("bob")
	if !ok {
		t.Fatalf("bob should be present")
	}
	if len(bob.Groups) != 2 {
		t.Fatalf("bob should carry his primary group and wheel, got %+v", bob.Groups)
	}

	wheel, _ := snap.GroupByName("wheel")
	if !bob.IsMember(wheel) {
		t.Errorf("bob should be a member of wheel via the members list")
	}
	rootGrp, _ := snap.GroupByGID(0)
	if bob.IsMember(rootGrp) {
		t.Errorf("bob is not a member of root")
	}
}

func TestLookupsByID(t *testing.T) {
	snap, err := Load([]byte(fixture))
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if u, ok := snap.UserByUID(0); !ok || u.Name != "root" {
		t.Errorf("UserByUID(0) = (%+v, %v)", u, ok)
	}
	if _, ok := snap.UserByUID(999); ok {
		t.Errorf("unknown uid should not resolve")
	}
	if g, ok := snap.GroupByName("bob"); !ok || g.GID != 1001 {
		t.Errorf("GroupByName(bob) = (%+v, %v)", g, ok)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	if _, err := Load([]byte("{")); err == nil {
		t.Fatalf("expected an error for truncated JSON")
	}
}
