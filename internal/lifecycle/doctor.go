package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path"
	"strings"

	"github.com/portal-labs/portals/internal/portal"
	"github.com/portal-labs/portals/internal/workspace"
)

// Severity grades a check finding.
type Severity int

const (
	SeverityOK   Severity = iota // check passed
	SeverityWarn                 // worth attention, not a problem
	SeverityFail                 // counted by Problems unless fixed
)

// Finding is one result of Check.
type Finding struct {
	Severity Severity
	Message  string
	Fixed    bool
}

// CheckOptions configures Check.
type CheckOptions struct {
	// Fix registers installed portals missing from the workspace files and
	// drops entries for portals that are gone.
	Fix bool
	// Tools are executables that should be on PATH.
	Tools []string
}

// CheckReport collects the findings of Check.
type CheckReport struct {
	Findings []Finding
}

// Problems counts failures that were not fixed.
func (r *CheckReport) Problems() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityFail && !f.Fixed {
			n++
		}
	}
	return n
}

func (r *CheckReport) add(out reporter, sev Severity, fixed bool, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Findings = append(r.Findings, Finding{Severity: sev, Message: msg, Fixed: fixed})
	switch {
	case fixed:
		out.ok("%s (fixed)", msg)
	case sev == SeverityOK:
		out.ok("%s", msg)
	case sev == SeverityWarn:
		out.warn("%s", msg)
	default:
		out.fail("%s", msg)
	}
}

// Check verifies that installed portals, package.json workspaces and the
// process file agree with each other.
func (e *Engine) Check(ctx context.Context, opts CheckOptions) (*CheckReport, error) {
	r := &CheckReport{}
	e.out.heading("Checking workspace %s", e.root)

	for _, tool := range opts.Tools {
		if _, err := exec.LookPath(tool); err != nil {
			r.add(e.out, SeverityWarn, false, "%s not found in PATH", tool)
		} else {
			r.add(e.out, SeverityOK, false, "%s found", tool)
		}
	}

	paths, err := e.manifest.Paths()
	manifestOK := err == nil
	if manifestOK {
		r.add(e.out, SeverityOK, false, "%s declares %d workspace entries", workspace.ManifestFile, len(paths))
	} else {
		r.add(e.out, SeverityFail, false, "%s: %v", workspace.ManifestFile, err)
	}

	procs, err := workspace.LoadProcessFile(e.processFilePath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.add(e.out, SeverityWarn, false, "no %s, portals will not be started by the process manager", workspace.ProcessFileName)
		procs = nil
	case err != nil:
		r.add(e.out, SeverityFail, false, "%v", err)
		procs = nil
	default:
		r.add(e.out, SeverityOK, false, "%s lists %d apps", workspace.ProcessFileName, len(procs.Apps()))
	}

	records, err := e.inventory.List(ctx)
	if err != nil {
		return nil, err
	}

	installed := make(map[string]bool, len(records))
	procsChanged := false
	for _, rec := range records {
		installed[rec.Name] = true
		switch {
		case rec.Problem != "":
			r.add(e.out, SeverityFail, false, "%s: %s", rec.Name, rec.Problem)
		case !rec.Managed:
			r.add(e.out, SeverityWarn, false, "%s has no %s and cannot be updated", rec.Name, portal.MetadataFile)
		}

		entry := e.manifestEntry(rec.Name)
		if manifestOK {
			if covered, err := e.manifest.Covers(entry); err == nil && !covered {
				fixed := false
				if opts.Fix {
					added, err := e.manifest.Register(entry)
					fixed = err == nil && added
				}
				r.add(e.out, SeverityFail, fixed, "%s is not listed in %s workspaces", rec.Name, workspace.ManifestFile)
			}
		}
		if procs != nil {
			if _, ok := procs.Lookup(rec.Name); !ok {
				if opts.Fix {
					procs.Register(rec.Name, "./"+entry)
					procsChanged = true
				}
				r.add(e.out, SeverityWarn, opts.Fix, "%s has no entry in %s", rec.Name, workspace.ProcessFileName)
			}
		}
	}

	prefix := e.manifestEntry("") + "/"
	if manifestOK {
		for _, p := range paths {
			name, ok := strings.CutPrefix(p, prefix)
			if !ok || name == "" || strings.ContainsAny(name, "/*?[{") || installed[name] {
				continue
			}
			fixed := false
			if opts.Fix {
				removed, err := e.manifest.Deregister(p)
				fixed = err == nil && removed
			}
			r.add(e.out, SeverityWarn, fixed, "%s lists %s, which is not installed", workspace.ManifestFile, p)
		}
	}

	if procs != nil {
		for _, app := range procs.Apps() {
			name, ok := strings.CutPrefix(path.Clean(app.Cwd), prefix)
			if !ok || strings.Contains(name, "/") || installed[name] {
				continue
			}
			fixed := opts.Fix && procs.Deregister(app.Name)
			procsChanged = procsChanged || fixed
			r.add(e.out, SeverityWarn, fixed, "%s starts %s from %s, which is not installed", workspace.ProcessFileName, app.Name, app.Cwd)
		}
		if procsChanged {
			if err := procs.Save(); err != nil {
				return r, fmt.Errorf("updating %s: %w", workspace.ProcessFileName, err)
			}
		}
	}

	if reg, err := e.registry.Fetch(ctx, false); err != nil {
		r.add(e.out, SeverityWarn, false, "registry unavailable: %v", err)
	} else {
		r.add(e.out, SeverityOK, false, "registry lists %d portals", len(reg.Portals))
	}

	return r, nil
}
