package dialect

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// Server versions at or below these majors need the legacy paging emulation.
const (
	LegacySQLServerMajor = 10 // SQL Server 2008 R2
	LegacyOracleMajor    = 11 // Oracle 11g
)

// MajorVersion extracts the major component of a server version string such as "9.0",
// "15.00.2000" or "11.2.0.4". ok is false when the string is empty or unparsable.
func MajorVersion(serverVersion string) (major int, ok bool) {
	serverVersion = strings.TrimSpace(serverVersion)
	if serverVersion == "" {
		return 0, false
	}
	v, err := version.NewVersion(serverVersion)
	if err != nil {
		return 0, false
	}
	segments := v.Segments()
	if len(segments) == 0 {
		return 0, false
	}
	return segments[0], true
}

// LegacyPaging reports whether serverVersion selects the emulated paging path of d.
// Unknown versions are treated as the latest server release.
func (d Dialect) LegacyPaging(serverVersion string) bool {
	major, ok := MajorVersion(serverVersion)
	if !ok {
		return false
	}
	switch d {
	case SQLServer:
		return major <= LegacySQLServerMajor
	case Oracle:
		return major <= LegacyOracleMajor
	default:
		return false
	}
}
