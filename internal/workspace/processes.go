package workspace

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
	"github.com/portal-labs/portals/internal/fsutil"
)

// ProcessFileName is the process-manager file at the workspace root.
const ProcessFileName = "ecosystem.config.js"

// Defaults for processes added by Register.
const (
	BasePort       = 3000
	DefaultScript  = "npm"
	DefaultArgs    = "start"
	DefaultNodeEnv = "development"
)

// ErrNoApps is returned when the file has no apps array this package can
// edit.
var ErrNoApps = errors.New("no apps array found")

// Process is one entry of the apps array.
type Process struct {
	Name    string
	Cwd     string
	Script  string
	Args    string
	Port    int
	NodeEnv string

	raw   string   // source text of an entry read from disk
	lead  []string // comment and blank lines above the entry
	trail string   // comment after the entry's comma on the same line
}

// ProcessFile is an ecosystem.config.js with its apps array located. The
// file is parsed with a JavaScript parser but never evaluated. Apps may be
// declared as module.exports = { apps: [...] } or through a variable that
// is later assigned to module.exports.
//
// Comments inside the array travel with the entry below them and are
// dropped when that entry is deregistered. Entries are re-indented one
// level below the array.
type ProcessFile struct {
	path string
	src  string

	start, end int    // byte range of the apps array literal
	indent     string // indentation of the line holding the array

	apps []Process
	tail []string // comment lines after the last entry
}

// LoadProcessFile reads and parses the file at path.
func LoadProcessFile(path string) (*ProcessFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading process file: %w", err)
	}
	return ParseProcessFile(path, data)
}

// ParseProcessFile parses src. path is used for error messages and Save.
func ParseProcessFile(path string, src []byte) (*ProcessFile, error) {
	text := string(src)
	prog, err := parser.ParseFile(nil, path, text, 0)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	arr := findApps(prog)
	if arr == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoApps)
	}

	f := &ProcessFile{
		path:  path,
		src:   text,
		start: offset(arr.Idx0()),
		end:   offset(arr.Idx1()),
	}
	lineStart := strings.LastIndexByte(text[:f.start], '\n') + 1
	line := text[lineStart:f.start]
	f.indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]

	prev := f.start + 1
	for _, elem := range arr.Value {
		if elem == nil {
			continue // elision
		}
		from, to := offset(elem.Idx0()), offset(elem.Idx1())
		trail, lead := splitGap(text[prev:from])
		if len(f.apps) > 0 {
			f.apps[len(f.apps)-1].trail = trail
		} else if trail != "" {
			lead = append([]string{trail}, lead...)
		}

		p := Process{raw: text[from:to], lead: lead}
		if obj, ok := elem.(*ast.ObjectLiteral); ok {
			decodeProcess(obj, &p)
		}
		f.apps = append(f.apps, p)
		prev = to
	}

	trail, tail := splitGap(text[prev : f.end-1])
	if len(f.apps) > 0 {
		f.apps[len(f.apps)-1].trail = trail
	} else if trail != "" {
		tail = append([]string{trail}, tail...)
	}
	f.tail = trimBlank(tail)
	return f, nil
}

// splitGap reads the source between two array elements. trail is a
// comment on the line of the preceding comma; lines are the comments and
// blank lines that follow, with runs of blank lines collapsed.
func splitGap(gap string) (trail string, lines []string) {
	first, rest, multiline := strings.Cut(gap, "\n")
	trail = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(first), ","))
	if !multiline {
		if trail != "" {
			return "", []string{trail}
		}
		return "", nil
	}

	segments := strings.Split(rest, "\n")
	for i, seg := range segments {
		line := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(seg), ","))
		if line == "" {
			last := i == len(segments)-1
			if !last && (len(lines) == 0 || lines[len(lines)-1] != "") {
				lines = append(lines, "")
			}
			continue
		}
		lines = append(lines, line)
	}
	return trail, lines
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Path returns the file location.
func (f *ProcessFile) Path() string { return f.path }

// Apps returns the entries in file order.
func (f *ProcessFile) Apps() []Process {
	out := make([]Process, len(f.apps))
	copy(out, f.apps)
	return out
}

// Lookup returns the entry named name.
func (f *ProcessFile) Lookup(name string) (Process, bool) {
	if i := f.index(name); i >= 0 {
		return f.apps[i], true
	}
	return Process{}, false
}

// NextPort returns one past the highest assigned port, or BasePort when no
// entry has a port.
func (f *ProcessFile) NextPort() int {
	highest := 0
	for _, p := range f.apps {
		highest = max(highest, p.Port)
	}
	if highest == 0 {
		return BasePort
	}
	return highest + 1
}

// Register appends a process for name running in cwd. An existing entry
// with the same name is left alone and returned with added false.
func (f *ProcessFile) Register(name, cwd string) (Process, bool) {
	if i := f.index(name); i >= 0 {
		return f.apps[i], false
	}
	p := Process{
		Name:    name,
		Cwd:     cwd,
		Script:  DefaultScript,
		Args:    DefaultArgs,
		Port:    f.NextPort(),
		NodeEnv: DefaultNodeEnv,
	}
	f.apps = append(f.apps, p)
	return p, true
}

// Deregister drops every entry named name and reports whether any existed.
func (f *ProcessFile) Deregister(name string) bool {
	kept := f.apps[:0]
	for _, p := range f.apps {
		if p.Name != name {
			kept = append(kept, p)
		}
	}
	removed := len(kept) != len(f.apps)
	f.apps = kept
	return removed
}

// Render returns the file contents with the apps array rewritten. Text
// outside the array is unchanged.
func (f *ProcessFile) Render() []byte {
	var b strings.Builder
	b.WriteString(f.src[:f.start])
	f.writeApps(&b)
	b.WriteString(f.src[f.end:])
	return []byte(b.String())
}

// Save writes the file atomically and re-reads it.
func (f *ProcessFile) Save() error {
	out := f.Render()
	perm := os.FileMode(0644)
	if info, err := os.Stat(f.path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fsutil.WriteFileAtomic(f.path, out, perm); err != nil {
		return err
	}
	next, err := ParseProcessFile(f.path, out)
	if err != nil {
		return err
	}
	*f = *next
	return nil
}

func (f *ProcessFile) index(name string) int {
	for i, p := range f.apps {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (f *ProcessFile) writeApps(b *strings.Builder) {
	if len(f.apps) == 0 && len(f.tail) == 0 {
		b.WriteString("[]")
		return
	}
	inner := f.indent + "  "
	b.WriteString("[\n")
	for i, p := range f.apps {
		lead := p.lead
		if i == 0 {
			lead = trimBlank(lead)
		}
		for _, line := range lead {
			writeCommentLine(b, inner, line)
		}
		b.WriteString(inner)
		if p.raw != "" {
			b.WriteString(p.raw)
		} else {
			writeProcess(b, p, inner)
		}
		b.WriteString(",")
		if p.trail != "" {
			b.WriteString(" " + p.trail)
		}
		b.WriteString("\n")
	}
	for _, line := range f.tail {
		writeCommentLine(b, inner, line)
	}
	b.WriteString(f.indent)
	b.WriteString("]")
}

func writeCommentLine(b *strings.Builder, indent, line string) {
	if line == "" {
		b.WriteString("\n")
		return
	}
	b.WriteString(indent)
	if strings.HasPrefix(line, "*") {
		b.WriteString(" ")
	}
	b.WriteString(line)
	b.WriteString("\n")
}

func writeProcess(b *strings.Builder, p Process, indent string) {
	field := indent + "  "
	env := field + "  "
	fmt.Fprintf(b, "{\n")
	fmt.Fprintf(b, "%sname: %s,\n", field, jsString(p.Name))
	fmt.Fprintf(b, "%scwd: %s,\n", field, jsString(p.Cwd))
	fmt.Fprintf(b, "%sscript: %s,\n", field, jsString(p.Script))
	fmt.Fprintf(b, "%sargs: %s,\n", field, jsString(p.Args))
	fmt.Fprintf(b, "%senv: {\n", field)
	fmt.Fprintf(b, "%sPORT: %d,\n", env, p.Port)
	fmt.Fprintf(b, "%sNODE_ENV: %s,\n", env, jsString(p.NodeEnv))
	fmt.Fprintf(b, "%s},\n", field)
	fmt.Fprintf(b, "%s}", indent)
}

var jsEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

func jsString(s string) string {
	return "'" + jsEscaper.Replace(s) + "'"
}
