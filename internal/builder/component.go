package builder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fastogt/build-env/internal/userconfig"
)

// Component is one of the libraries built from source.
type Component int

const (
	JsonC Component = iota
	Libev
	Common
	FastotvProtocol
)

// BuildSystem selects how a component is configured and installed.
type BuildSystem int

const (
	CMake BuildSystem = iota
	Autotools
)

func (b BuildSystem) String() string {
	if b == Autotools {
		return "autotools"
	}
	return "cmake"
}

type recipe struct {
	name    string
	aliases []string
	system  BuildSystem
	source  Source
	args    []string
}

var recipes = [...]recipe{
	JsonC: {
		name:    "json-c",
		aliases: []string{"jsonc"},
		system:  CMake,
		source:  Source{Git: "https://github.com/fastogt/json-c.git", Branch: "master"},
		args:    []string{"-DBUILD_SHARED_LIBS=OFF", "-DBUILD_TESTING=OFF", "-DDISABLE_WERROR=ON"},
	},
	Libev: {
		name:   "libev",
		system: Autotools,
		source: Source{Git: "https://github.com/fastogt/libev.git", Branch: "master"},
		args:   []string{"--disable-shared", "--enable-static"},
	},
	Common: {
		name:   "common",
		system: CMake,
		source: Source{Git: "https://github.com/fastogt/common.git", Branch: "master"},
		args:   []string{"-DJSON_ENABLED=ON", "-DQT_ENABLED=OFF"},
	},
	FastotvProtocol: {
		name:    "fastotv_protocol",
		aliases: []string{"fastotv-protocol"},
		system:  CMake,
		source:  Source{Git: "https://github.com/fastogt/fastotv_protocol.git", Branch: "master"},
	},
}

// Components returns every component in build order.
func Components() []Component {
	return []Component{JsonC, Libev, Common, FastotvProtocol}
}

func (c Component) valid() bool {
	return c >= 0 && int(c) < len(recipes)
}

func (c Component) String() string {
	if !c.valid() {
		return fmt.Sprintf("Component(%d)", int(c))
	}
	return recipes[c].name
}

// BuildSystem returns how c is built.
func (c Component) BuildSystem() BuildSystem {
	return recipes[c].system
}

// Args returns the extra cmake or configure arguments for c.
func (c Component) Args() []string {
	return append([]string(nil), recipes[c].args...)
}

// DefaultSource returns where c is fetched from unless overridden.
func (c Component) DefaultSource() Source {
	return recipes[c].source
}

// ParseComponent looks up a component by name or alias.
func ParseComponent(name string) (Component, error) {
	lower := strings.ToLower(name)
	for _, c := range Components() {
		if recipes[c].name == lower {
			return c, nil
		}
		for _, alias := range recipes[c].aliases {
			if alias == lower {
				return c, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown component %q", name)
}

// Source is where a component's code comes from: a git branch or an
// HTTPS archive.
type Source struct {
	Git     string
	Branch  string
	Archive string
}

func (s Source) String() string {
	if s.Archive != "" {
		return s.Archive
	}
	if s.Branch == "" {
		return s.Git
	}
	return s.Git + "@" + s.Branch
}

// Sources holds per-component overrides. Missing entries use the default.
type Sources map[Component]Source

// For returns the source of c.
func (s Sources) For(c Component) Source {
	if src, ok := s[c]; ok {
		return src
	}
	return c.DefaultSource()
}

// SourcesFromConfig converts the [sources.<component>] tables of the
// user config. A git override without a branch keeps the default branch.
func SourcesFromConfig(cfg map[string]userconfig.Source) (Sources, error) {
	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make(Sources, len(cfg))
	for _, name := range names {
		c, err := ParseComponent(name)
		if err != nil {
			return nil, fmt.Errorf("config sources: %w", err)
		}
		override := cfg[name]
		if err := override.Validate(); err != nil {
			return nil, fmt.Errorf("config sources.%s: %w", name, err)
		}

		src := Source{Git: override.Git, Branch: override.Branch, Archive: override.Archive}
		if src.Git != "" && src.Branch == "" {
			src.Branch = c.DefaultSource().Branch
		}
		sources[c] = src
	}
	return sources, nil
}
