package settings

// Shape distinguishes the three DefaultValue payloads a known setting name
// is expected to carry. Used to turn spec.md §9's open question ("is_bool_
// param/is_list_param are stubs returning true") into a concrete, still
// non-fatal, check (SPEC_FULL.md §4.5).
type Shape int

const (
	ShapeFlag Shape = iota
	ShapeText
	ShapeList
)

// known maps a Defaults setting name to the shape it is documented to carry
// in classic sudo. Names absent from this table are accepted with any
// shape: unknown names are never rejected, only unvalidated (spec.md §4.5,
// "unknown names are accepted and stored").
var known = map[string]Shape{
	"env_keep":           ShapeList,
	"env_check":          ShapeList,
	"env_delete":         ShapeList,
	"secure_path":        ShapeText,
	"lecture_file":       ShapeText,
	"mailerpath":         ShapeText,
	"editor":             ShapeText,
	"passwd_tries":       ShapeText,
	"timestamp_timeout":  ShapeText,
	"requiretty":         ShapeFlag,
	"lecture":            ShapeFlag,
	"authenticate":       ShapeFlag,
	"set_home":           ShapeFlag,
	"preserve_env":       ShapeFlag,
	"always_set_home":    ShapeFlag,
	"targetpw":           ShapeFlag,
	"rootpw":             ShapeFlag,
	"noexec":             ShapeFlag,
	"insults":            ShapeFlag,
	"mail_badpass":       ShapeFlag,
	"mail_no_user":       ShapeFlag,
	"mail_no_host":       ShapeFlag,
}

// ShapeOf reports the documented shape for name and whether name is known
// at all.
func ShapeOf(name string) (Shape, bool) {
	s, ok := known[name]
	return s, ok
}
