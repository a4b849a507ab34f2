package domain

import "strings"

// Category classifies the kind of work a task represents.
// The set is open: unknown categories are kept verbatim and scored with table defaults.
type Category string

const (
	CategorySecurity       Category = "SECURITY"
	CategoryInfrastructure Category = "INFRASTRUCTURE"
	CategoryMeetingPrep    Category = "MEETING_PREP"
	CategorySupport        Category = "SUPPORT"
	CategoryDevelopment    Category = "DEVELOPMENT"
	CategoryMaintenance    Category = "MAINTENANCE"
	CategoryTraining       Category = "TRAINING"
	CategoryCompliance     Category = "COMPLIANCE"
)

// KnownCategories lists the built-in categories.
var KnownCategories = []Category{
	CategorySecurity,
	CategoryInfrastructure,
	CategoryMeetingPrep,
	CategorySupport,
	CategoryDevelopment,
	CategoryMaintenance,
	CategoryTraining,
	CategoryCompliance,
}

// ParseCategory normalizes free-form input ("meeting-prep", "Security") into a Category.
func ParseCategory(value string) Category {
	return Category(normalizeTag(value))
}

// IsKnown reports whether the category is one of the built-in values.
func (c Category) IsKnown() bool {
	for _, known := range KnownCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// UnmarshalText normalizes decoded values the same way ParseCategory does.
func (c *Category) UnmarshalText(text []byte) error {
	*c = ParseCategory(string(text))
	return nil
}

// Role is the organizational role of the person requesting the work.
type Role string

const (
	RoleCEO       Role = "CEO"
	RoleCFO       Role = "CFO"
	RoleCTO       Role = "CTO"
	RoleManager   Role = "MANAGER"
	RoleITAdmin   Role = "IT_ADMIN"
	RoleClient    Role = "CLIENT"
	RoleDeveloper Role = "DEVELOPER"
	RoleEmployee  Role = "EMPLOYEE"
)

// KnownRoles lists the built-in roles.
var KnownRoles = []Role{
	RoleCEO,
	RoleCFO,
	RoleCTO,
	RoleManager,
	RoleITAdmin,
	RoleClient,
	RoleDeveloper,
	RoleEmployee,
}

// ParseRole normalizes free-form input ("it admin", "ceo") into a Role.
func ParseRole(value string) Role {
	return Role(normalizeTag(value))
}

// IsExecutive reports whether the role belongs to the C-suite.
func (r Role) IsExecutive() bool {
	switch r {
	case RoleCEO, RoleCFO, RoleCTO:
		return true
	default:
		return false
	}
}

// IsKnown reports whether the role is one of the built-in values.
func (r Role) IsKnown() bool {
	for _, known := range KnownRoles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// UnmarshalText normalizes decoded values the same way ParseRole does.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}

func normalizeTag(value string) string {
	value = strings.TrimSpace(strings.ToUpper(value))
	return strings.NewReplacer("-", "_", " ", "_").Replace(value)
}
