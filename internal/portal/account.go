package portal

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Role identifies the kind of account.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole normalizes user input into a Role.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Profile carries the role-specific part of an account. Only StudentProfile
// and AdminProfile implement it.
type Profile interface {
	Role() Role
	isProfile()
}

// StudentProfile holds the fields only students have.
type StudentProfile struct {
	Branch string
	Year   string
}

// Role implements Profile.
func (StudentProfile) Role() Role { return RoleStudent }
func (StudentProfile) isProfile() {}

// AdminProfile marks an administrator account.
type AdminProfile struct{}

// Role implements Profile.
func (AdminProfile) Role() Role { return RoleAdmin }
func (AdminProfile) isProfile() {}

const (
	defaultBranch = "CSE"
	defaultYear   = "1st Year"
)

// Account is a registered identity.
type Account struct {
	ID      string
	Name    string
	Email   string
	Avatar  string
	Profile Profile
}

// Role reports the account role; accounts without a profile are treated as students.
func (a Account) Role() Role {
	if a.Profile == nil {
		return RoleStudent
	}
	return a.Profile.Role()
}

// Student returns the student profile when the account is a student.
func (a Account) Student() (StudentProfile, bool) {
	p, ok := a.Profile.(StudentProfile)
	return p, ok
}

// IsAdmin reports whether the account holds the ADMIN role.
func (a Account) IsAdmin() bool {
	return a.Role() == RoleAdmin
}

type accountJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Branch string `json:"branch,omitempty"`
	Year   string `json:"year,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// MarshalJSON flattens the role variant into the stored account shape.
func (a Account) MarshalJSON() ([]byte, error) {
	wire := accountJSON{
		ID:     a.ID,
		Name:   a.Name,
		Email:  a.Email,
		Role:   a.Role(),
		Avatar: a.Avatar,
	}
	if student, ok := a.Student(); ok {
		wire.Branch = student.Branch
		wire.Year = student.Year
	}
	return json.Marshal(wire)
}

// UnmarshalJSON rebuilds the role variant; unknown roles are rejected.
func (a *Account) UnmarshalJSON(data []byte) error {
	var wire accountJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	profile, err := profileFor(wire.Role, wire.Branch, wire.Year)
	if err != nil {
		return err
	}
	*a = Account{
		ID:      wire.ID,
		Name:    wire.Name,
		Email:   wire.Email,
		Avatar:  wire.Avatar,
		Profile: profile,
	}
	return nil
}

func profileFor(role Role, branch, year string) (Profile, error) {
	switch role {
	case RoleStudent:
		return StudentProfile{Branch: branch, Year: year}, nil
	case RoleAdmin:
		return AdminProfile{}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

// newProfile applies signup defaults for students.
func newProfile(role Role, branch, year string) Profile {
	if role == RoleAdmin {
		return AdminProfile{}
	}
	if strings.TrimSpace(branch) == "" {
		branch = defaultBranch
	}
	if strings.TrimSpace(year) == "" {
		year = defaultYear
	}
	return StudentProfile{Branch: branch, Year: year}
}

func avatarURL(name string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return "https://ui-avatars.com/api/?name=" + escaped + "&background=random"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
