// Package version provides ktimer API version parsing and compatibility checks.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Current is the API version implemented by this module.
const Current = "1.0"

// ErrIncompatible is returned when a peer speaks another major version.
var ErrIncompatible = errors.New("incompatible API version")

// APIVersion represents a parsed "major.minor" API version.
type APIVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (APIVersion, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok || strings.Contains(minor, ".") {
		return APIVersion{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	maj, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return APIVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}
	mnr, err := strconv.ParseUint(minor, 10, 16)
	if err != nil {
		return APIVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return APIVersion{Major: uint16(maj), Minor: uint16(mnr)}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) APIVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "major.minor".
func (v APIVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v APIVersion) Compatible(other APIVersion) bool {
	return v.Major == other.Major
}

// Check verifies that a peer advertising remote can talk to this module.
// An empty remote is accepted: older firmware did not advertise a version.
func Check(remote string) error {
	if remote == "" {
		return nil
	}
	rv, err := Parse(remote)
	if err != nil {
		return err
	}
	if cur := MustParse(Current); !cur.Compatible(rv) {
		return fmt.Errorf("%w: peer %s, local %s", ErrIncompatible, rv, cur)
	}
	return nil
}
