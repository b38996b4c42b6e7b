// Package config implements the §6 CLI/environment surface: the
// in-process option struct cmd/a68g binds cobra/pflag flags into, the
// k/M/G region-size suffix parser, and the optional
// `$HOME/.a68g/rc.yaml` run-command file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default region sizes and sampling interval, the reference values
// spec.md §4.1/§5 names explicitly.
const (
	DefaultStack   = 4 << 20
	DefaultHeap    = 16 << 20
	DefaultHandles = 1 << 20
	DefaultFrame   = 4 << 20
	DefaultSample  = 25000
)

// Options is the fully resolved set of flags the engine and driver
// consult (§6 CLI surface): one positional source filename plus the
// named flags, after rc-file defaults and explicit flags have been
// merged (explicit flags win).
type Options struct {
	Source string

	Execute string
	Print   string
	Check   bool

	Stack   int64
	Heap    int64
	Handles int64
	Frame   int64

	Precision int
	TimeLimit int

	Trace      bool
	Assertions bool

	SampleEvery int
}

// Default returns the built-in defaults before any rc file or flag is
// applied.
func Default() Options {
	return Options{
		Stack:       DefaultStack,
		Heap:        DefaultHeap,
		Handles:     DefaultHandles,
		Frame:       DefaultFrame,
		Precision:   0,
		SampleEvery: DefaultSample,
	}
}

// RCFile is the optional `$HOME/.a68g/rc.yaml` shape: region size
// overrides and default flags applied before the command line's own
// flags (§6 "Environment": HOME holds a per-user config subdirectory
// for the run-command file).
type RCFile struct {
	Stack      string `yaml:"stack"`
	Heap       string `yaml:"heap"`
	Handles    string `yaml:"handles"`
	Frame      string `yaml:"frame"`
	Precision  int    `yaml:"precision"`
	TimeLimit  int    `yaml:"timelimit"`
	Trace      bool   `yaml:"trace"`
	Assertions bool   `yaml:"assertions"`
}

// RCPath returns the default rc-file location under HOME, or an error
// if HOME cannot be resolved.
func RCPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".a68g", "rc.yaml"), nil
}

// LoadRC reads and parses path; a missing file is not an error (the rc
// file is entirely optional), reported by the second return.
func LoadRC(path string) (*RCFile, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var rc RCFile
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, false, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &rc, true, nil
}

// ApplyRC merges rc's defaults into opts wherever opts still carries
// the Default() value, so a command-line flag always wins over the rc
// file. Size fields use k/M/G suffix parsing; a malformed size in the
// rc file is an error rather than a silently ignored default.
func ApplyRC(opts *Options, rc *RCFile) error {
	defaults := Default()
	if rc.Stack != "" && opts.Stack == defaults.Stack {
		v, err := ParseSize(rc.Stack)
		if err != nil {
			return fmt.Errorf("config: stack: %w", err)
		}
		opts.Stack = v
	}
	if rc.Heap != "" && opts.Heap == defaults.Heap {
		v, err := ParseSize(rc.Heap)
		if err != nil {
			return fmt.Errorf("config: heap: %w", err)
		}
		opts.Heap = v
	}
	if rc.Handles != "" && opts.Handles == defaults.Handles {
		v, err := ParseSize(rc.Handles)
		if err != nil {
			return fmt.Errorf("config: handles: %w", err)
		}
		opts.Handles = v
	}
	if rc.Frame != "" && opts.Frame == defaults.Frame {
		v, err := ParseSize(rc.Frame)
		if err != nil {
			return fmt.Errorf("config: frame: %w", err)
		}
		opts.Frame = v
	}
	if rc.Precision != 0 && opts.Precision == 0 {
		opts.Precision = rc.Precision
	}
	if rc.TimeLimit != 0 && opts.TimeLimit == 0 {
		opts.TimeLimit = rc.TimeLimit
	}
	if rc.Trace && !opts.Trace {
		opts.Trace = true
	}
	if rc.Assertions && !opts.Assertions {
		opts.Assertions = true
	}
	return nil
}

// ParseSize parses a region-size flag value with an optional k/M/G
// suffix (case-insensitive), per §6 "`--stack N` ... accepts k/M/G
// suffixes".
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	mult := int64(1)
	last := s[len(s)-1]
	switch last {
	case 'k', 'K':
		mult = 1 << 10
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1 << 20
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1 << 30
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size %q", s)
	}
	return n * mult, nil
}

// SourceExtensions are the extensions §6 says the driver tries, in
// order, against a positional filename with no extension of its own.
var SourceExtensions = []string{".a68", ".a68g", ".algol68", ".algol68g"}

// ResolveSource finds the source file §6 describes: the path as given
// if it already exists, else each tried extension in turn, first as
// listed and then in upper case; other mixed-case spellings are not
// tried.
func ResolveSource(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	for _, ext := range SourceExtensions {
		candidate := path + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		upper := path + strings.ToUpper(ext)
		if _, err := os.Stat(upper); err == nil {
			return upper, nil
		}
	}
	return "", fmt.Errorf("config: no source file found for %q (tried %s)", path, strings.Join(SourceExtensions, ", "))
}
