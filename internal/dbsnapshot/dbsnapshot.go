// Package dbsnapshot models the user/group database snapshot that stands
// in for `/etc/passwd`/`/etc/group` lookups (spec.md §1: "the core must be
// a pure function ... it performs no I/O"). The core never reads these
// files itself; a caller loads a Snapshot once, resolves a Request's User
// and Group values from it, and passes those plain values into
// internal/authz — the evaluator itself never touches a Snapshot.
package dbsnapshot

import "encoding/json"

// Group is a resolved group database entry (spec.md §6).
type Group struct {
	GID     int      `json:"gid"`
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

// User is a resolved user/group database entry (spec.md §6). Groups carries
// the user's full set of group memberships, filled in by the Snapshot
// lookups (UserByName, UserByUID) so the evaluator never has to look
// anything up itself.
type User struct {
	UID    int     `json:"uid"`
	GID    int     `json:"gid"`
	Name   string  `json:"name"`
	Home   string  `json:"home"`
	Shell  string  `json:"shell"`
	Groups []Group `json:"groups,omitempty"`
}

// IsMember reports whether u belongs to group, either by primary gid or by
// appearing in Groups.
func (u User) IsMember(group Group) bool {
	if u.GID == group.GID {
		return true
	}
	for _, g := range u.Groups {
		if g.GID == group.GID || g.Name == group.Name {
			return true
		}
	}
	return false
}

// Snapshot is the whole user/group database a Request is resolved against
// before evaluation: enough to turn a bare user/group name from the CLI
// shell into a fully populated User with its group memberships attached.
type Snapshot struct {
	Users  []User  `json:"users"`
	Groups []Group `json:"groups"`
}

// Load decodes a Snapshot from its JSON fixture representation. Reading the
// bytes from disk is the caller's job (spec.md §1 excludes file-system I/O
// from the core); Load itself performs no I/O.
func Load(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UserByName returns user, with its Groups populated, if name is present.
func (s *Snapshot) UserByName(name string) (User, bool) {
	for _, u := range s.Users {
		if u.Name == name {
			return s.resolveGroups(u), true
		}
	}
	return User{}, false
}

// UserByUID returns user, with its Groups populated, if uid is present.
func (s *Snapshot) UserByUID(uid int) (User, bool) {
	for _, u := range s.Users {
		if u.UID == uid {
			return s.resolveGroups(u), true
		}
	}
	return User{}, false
}

// GroupByName returns the group named name, if present.
func (s *Snapshot) GroupByName(name string) (Group, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// GroupByGID returns the group with the given gid, if present.
func (s *Snapshot) GroupByGID(gid int) (Group, bool) {
	for _, g := range s.Groups {
		if g.GID == gid {
			return g, true
		}
	}
	return Group{}, false
}

// resolveGroups returns a copy of u with Groups set to every group in s
// that u belongs to by gid or by appearing in the group's Members list.
// The fixture format stores membership on the Group side (mirroring
// /etc/group); this stitches the reverse index onto the User each time it
// is looked up, so internal/authz never has to consult the Snapshot itself.
func (s *Snapshot) resolveGroups(u User) User {
	for _, g := range s.Groups {
		if g.GID == u.GID {
			u.Groups = append(u.Groups, g)
			continue
		}
		for _, m := range g.Members {
			if m == u.Name {
				u.Groups = append(u.Groups, g)
				break
			}
		}
	}
	return u
}
