package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SoftwareVersion is a dotted version with up to four numeric components and
// an optional trailing suffix ("1.0a", "2.4.54", "5.0-beta").
type SoftwareVersion struct {
	Major  int
	Minor  int
	Patch  int
	Build  int
	Suffix string
}

// ParseVersion reads a version string. The suffix starts at the first
// character that is neither a digit nor a dot.
func ParseVersion(s string) (SoftwareVersion, error) {
	s = strings.TrimSpace(s)
	cut := strings.IndexFunc(s, func(r rune) bool {
		return r != '.' && (r < '0' || r > '9')
	})
	numeric, suffix := s, ""
	if cut >= 0 {
		numeric, suffix = s[:cut], s[cut:]
	}
	numeric = strings.TrimRight(numeric, ".")
	if numeric == "" {
		return SoftwareVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	parts := strings.Split(numeric, ".")
	if len(parts) > 4 {
		return SoftwareVersion{}, fmt.Errorf("%w: %q has more than four components", ErrInvalidVersion, s)
	}
	var nums [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return SoftwareVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		nums[i] = n
	}
	return SoftwareVersion{Major: nums[0], Minor: nums[1], Patch: nums[2], Build: nums[3], Suffix: suffix}, nil
}

// MustParseVersion is ParseVersion for static tables.
func MustParseVersion(s string) SoftwareVersion {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare orders by numeric components, then suffix; no suffix sorts first.
func (v SoftwareVersion) Compare(o SoftwareVersion) int {
	a := [4]int{v.Major, v.Minor, v.Patch, v.Build}
	b := [4]int{o.Major, o.Minor, o.Patch, o.Build}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case v.Suffix == o.Suffix:
		return 0
	case v.Suffix == "":
		return -1
	case o.Suffix == "":
		return 1
	}
	return strings.Compare(v.Suffix, o.Suffix)
}

func (v SoftwareVersion) Less(o SoftwareVersion) bool {
	return v.Compare(o) < 0
}

func (v SoftwareVersion) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Build > 0 {
		s += fmt.Sprintf(".%d", v.Build)
	}
	return s + v.Suffix
}

func (v SoftwareVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText lets versions appear as plain strings in YAML and JSON.
func (v *SoftwareVersion) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
