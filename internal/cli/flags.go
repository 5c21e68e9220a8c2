package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/svcscan/svcscan/internal/model"
)

// flagSpec describes one CLI flag, keeping the corpus's own declarative
// flag-table idiom even though the parsing underneath is hand-rolled: the
// standard library's flag package cannot bundle short flags ("-vt 500"
// meaning "-v -t 500"), which section 6 requires.
type flagSpec struct {
	short rune
	long  string
	usage string

	boolVal *bool
	strVal  *string
	intVal  *int
}

func (f flagSpec) isBool() bool { return f.boolVal != nil }

func flagTable(o *Options) []flagSpec {
	return []flagSpec{
		{short: 'p', long: "port", usage: "Port spec, e.g. 22,80,1000-1010", strVal: &o.PortsSpec},
		{short: 't', long: "timeout", usage: "Connect timeout in milliseconds", intVal: &o.TimeoutMs},
		{short: 'u', long: "uri", usage: "HTTP request URI", strVal: &o.URI},
		{short: 'o', long: "output", usage: "Write the report to this path", strVal: &o.OutputPath},
		{short: 'v', long: "verbose", usage: "Verbose output", boolVal: &o.Verbose},
		{short: 'h', long: "help", usage: "Show usage", boolVal: &o.Help},
		{short: '?', long: "", usage: "Show usage", boolVal: &o.Help},
		{long: "json", usage: "Emit a JSON report instead of a table", boolVal: &o.JSON},
		{long: "curl", usage: "Force an HTTP GET exchange on every port", boolVal: &o.Curl},
		{long: "tls", usage: "Retry TLS-only ports with a TLS handshake", boolVal: &o.TLS},
	}
}

// ParseArgs parses argv (excluding argv[0]) per section 6: a positional
// TARGET, an optional positional or -p/--port PORTS, and the flag table
// above, with POSIX-style bundled short flags.
func ParseArgs(argv []string) (*Options, error) {
	opts := &Options{TimeoutMs: defaultTimeoutMs}
	specs := flagTable(opts)

	byLong := make(map[string]*flagSpec, len(specs))
	byShort := make(map[rune]*flagSpec, len(specs))
	for i := range specs {
		s := &specs[i]
		if s.long != "" {
			byLong[s.long] = s
		}
		if s.short != 0 {
			byShort[s.short] = s
		}
	}

	var positionals []string

	for i := 0; i < len(argv); i++ {
		tok := argv[i]

		switch {
		case tok == "--":
			positionals = append(positionals, argv[i+1:]...)
			i = len(argv)

		case strings.HasPrefix(tok, "--"):
			name := tok[2:]
			value, hasValue := "", false
			if eq := strings.IndexByte(name, '='); eq >= 0 {
				value, hasValue = name[eq+1:], true
				name = name[:eq]
			}
			spec, ok := byLong[name]
			if !ok {
				return nil, &model.InvalidArgError{Name: tok, Explanation: "unknown flag"}
			}
			if spec.isBool() {
				*spec.boolVal = true
				continue
			}
			if !hasValue {
				i++
				if i >= len(argv) {
					return nil, &model.InvalidArgError{Name: tok, Explanation: "missing value"}
				}
				value = argv[i]
			}
			if err := assign(spec, value); err != nil {
				return nil, err
			}

		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			runes := []rune(tok[1:])
			for j := 0; j < len(runes); j++ {
				spec, ok := byShort[runes[j]]
				if !ok {
					return nil, &model.InvalidArgError{Name: "-" + string(runes[j]), Explanation: "unknown flag"}
				}
				if spec.isBool() {
					*spec.boolVal = true
					continue
				}
				value := string(runes[j+1:])
				if value == "" {
					i++
					if i >= len(argv) {
						return nil, &model.InvalidArgError{Name: "-" + string(runes[j]), Explanation: "missing value"}
					}
					value = argv[i]
				}
				if err := assign(spec, value); err != nil {
					return nil, err
				}
				break
			}

		default:
			positionals = append(positionals, tok)
		}
	}

	if len(positionals) > 0 {
		opts.Target = positionals[0]
	}
	if len(positionals) > 1 && opts.PortsSpec == "" {
		opts.PortsSpec = positionals[1]
	}

	return opts, nil
}

func assign(spec *flagSpec, value string) error {
	switch {
	case spec.strVal != nil:
		*spec.strVal = value
		return nil
	case spec.intVal != nil:
		n, err := strconv.Atoi(value)
		if err != nil {
			return &model.InvalidArgError{Name: "-" + spec.long, Explanation: "expected an integer"}
		}
		*spec.intVal = n
		return nil
	default:
		return nil
	}
}

// Usage renders the usage block printed on stderr after a validation
// error, and for -h/--help.
func Usage(executable string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s TARGET [PORTS] [options]\n\n", executable)
	opts := &Options{}
	for _, s := range flagTable(opts) {
		if s.long == "" {
			continue
		}
		if s.short != 0 {
			fmt.Fprintf(&b, "  -%c, --%-10s %s\n", s.short, s.long, s.usage)
		} else {
			fmt.Fprintf(&b, "      --%-10s %s\n", s.long, s.usage)
		}
	}
	return b.String()
}
