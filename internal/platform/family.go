package platform

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// Linux distribution identifiers understood by the package catalog.
const (
	DistributionDebian = "DEBIAN"
	DistributionRHEL   = "RHEL"
	DistributionArch   = "ARCH"
)

// osReleasePath is a variable so tests can point detection at a fixture.
var osReleasePath = "/etc/os-release"

// OSRelease contains parsed values from /etc/os-release.
type OSRelease struct {
	ID              string   // Canonical distro identifier (e.g., "ubuntu", "fedora")
	IDLike          []string // Parent/similar distros (e.g., ["debian"] for Ubuntu)
	VersionID       string   // Version number (e.g., "22.04")
	VersionCodename string   // Codename (e.g., "jammy")
}

// distroToDistribution maps os-release IDs to the distribution that
// decides which package names are used.
var distroToDistribution = map[string]string{
	// apt
	"debian": DistributionDebian, "ubuntu": DistributionDebian, "linuxmint": DistributionDebian,
	"pop": DistributionDebian, "elementary": DistributionDebian, "zorin": DistributionDebian,
	"raspbian": DistributionDebian,
	// yum/dnf
	"fedora": DistributionRHEL, "rhel": DistributionRHEL, "centos": DistributionRHEL,
	"rocky": DistributionRHEL, "almalinux": DistributionRHEL, "ol": DistributionRHEL,
	"amzn": DistributionRHEL,
	// pacman
	"arch": DistributionArch, "manjaro": DistributionArch, "endeavouros": DistributionArch,
}

// ParseOSRelease parses the /etc/os-release file format.
func ParseOSRelease(path string) (*OSRelease, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	release := &OSRelease{}
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case "ID":
			release.ID = value
		case "ID_LIKE":
			release.IDLike = strings.Fields(value)
		case "VERSION_ID":
			release.VersionID = value
		case "VERSION_CODENAME":
			release.VersionCodename = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return release, nil
}

// MapDistroToDistribution maps a distro ID to its distribution.
// Falls back to the ID_LIKE chain if the ID is not directly recognized.
// Unrecognized distros map to their upper-cased ID so that callers see
// a concrete name when resolution later rejects it.
func MapDistroToDistribution(id string, idLike []string) string {
	if dist, ok := distroToDistribution[id]; ok {
		return dist
	}

	for _, like := range idLike {
		if dist, ok := distroToDistribution[like]; ok {
			return dist
		}
	}

	return strings.ToUpper(id)
}

// DetectDistribution returns the distribution of the running Linux host.
// Returns an empty string and nil error if os-release is missing.
func DetectDistribution() (string, error) {
	release, err := ParseOSRelease(osReleasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	return MapDistroToDistribution(release.ID, release.IDLike), nil
}
