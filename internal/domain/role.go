package domain

// Role is the application-declared stream intent read from stream metadata.
// Unknown tags are valid and classified as RoleClassOther.
type Role string

const (
	RoleNone     Role = ""
	RolePhone    Role = "phone"
	RoleNavi     Role = "navi"
	RoleAbstract Role = "abstract"
)

// RoleClass is the closed set of behaviours a role can have while a
// priority role is active.
type RoleClass int

const (
	RoleClassNone RoleClass = iota
	RoleClassPriority
	RoleClassExempt
	RoleClassDuckable
	RoleClassOther
)

func (r Role) Class() RoleClass {
	switch r {
	case RoleNone:
		return RoleClassNone
	case RolePhone:
		return RoleClassPriority
	case RoleAbstract:
		return RoleClassExempt
	case RoleNavi:
		return RoleClassDuckable
	default:
		return RoleClassOther
	}
}

func (c RoleClass) String() string {
	switch c {
	case RoleClassNone:
		return "none"
	case RoleClassPriority:
		return "priority"
	case RoleClassExempt:
		return "exempt"
	case RoleClassDuckable:
		return "duckable"
	default:
		return "other"
	}
}
