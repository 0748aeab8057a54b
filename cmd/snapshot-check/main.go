// Command snapshot-check validates a .scsync snapshot document before it is
// handed to staff: it parses every collection, prints per-collection counts,
// and audits cross-references so a broken export is caught on the admin's
// machine rather than on a staff phone.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"scolarcore/internal/core"
	"scolarcore/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("snapshot-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var strict bool
	fs.BoolVar(&strict, "strict", false, "treat advisory findings as failures")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: snapshot-check [-strict] <file.scsync>")
		return 2
	}
	if err := run(fs.Arg(0), strict, stdout); err != nil {
		fmt.Fprintf(stderr, "Snapshot validation failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "Snapshot validation passed.")
	return 0
}

// validatePath rejects absolute and path-traversing references so the tool
// only reads files under the working tree.
func validatePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("absolute paths not allowed: %s", p)
	}
	clean := filepath.Clean(p)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("path traversal not allowed: %s", p)
	}
	return clean, nil
}

func run(path string, strict bool, stdout io.Writer) error {
	safePath, err := validatePath(path)
	if err != nil {
		return err
	}
	doc, err := os.ReadFile(safePath) // #nosec G304: path validated by validatePath
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	snap, present, err := core.ParseSnapshot(doc)
	if err != nil {
		return err
	}

	printCount := func(name string, present bool, n int) {
		if !present {
			fmt.Fprintf(stdout, "%-15s absent\n", name)
			return
		}
		fmt.Fprintf(stdout, "%-15s %d\n", name, n)
	}
	printCount("schools", present.Schools, len(snap.Schools))
	printCount("students", present.Students, len(snap.Students))
	printCount("staff", present.Staff, len(snap.Staff))
	printCount("parentAccounts", present.ParentAccounts, len(snap.ParentAccounts))
	printCount("attendance", present.Attendance, len(snap.Attendance))

	findings := auditSnapshot(snap)
	for _, finding := range findings {
		fmt.Fprintf(stdout, "note: %s\n", finding)
	}
	if strict && len(findings) > 0 {
		return fmt.Errorf("%d advisory finding(s) in strict mode", len(findings))
	}
	return nil
}

// auditSnapshot cross-checks references within the document. The findings are
// advisory: a device importing the file would accept it, but an admin usually
// wants to know before sharing.
func auditSnapshot(snap domain.Snapshot) []string {
	schools := make(map[string]struct{}, len(snap.Schools))
	for _, school := range snap.Schools {
		schools[school.ID] = struct{}{}
	}
	students := make(map[string]struct{}, len(snap.Students))
	parents := make(map[string]struct{}, len(snap.ParentAccounts))
	for _, parent := range snap.ParentAccounts {
		parents[parent.ID] = struct{}{}
	}

	var findings []string
	for _, student := range snap.Students {
		students[student.ID] = struct{}{}
		if _, ok := schools[student.SchoolID]; !ok {
			findings = append(findings, fmt.Sprintf("student %s references missing school %s", student.ID, student.SchoolID))
		}
		if student.ParentID != "" {
			if _, ok := parents[student.ParentID]; !ok {
				findings = append(findings, fmt.Sprintf("student %s links to missing parent account %s", student.ID, student.ParentID))
			}
		}
	}
	for _, staff := range snap.Staff {
		if _, ok := schools[staff.SchoolID]; !ok {
			findings = append(findings, fmt.Sprintf("staff %s references missing school %s", staff.ID, staff.SchoolID))
		}
	}
	type dayKey struct{ student, date string }
	seen := make(map[dayKey]struct{}, len(snap.Attendance))
	for _, record := range snap.Attendance {
		if _, ok := students[record.StudentID]; !ok {
			findings = append(findings, fmt.Sprintf("attendance %s references missing student %s", record.ID, record.StudentID))
		}
		k := dayKey{student: record.StudentID, date: record.Date}
		if _, dup := seen[k]; dup {
			findings = append(findings, fmt.Sprintf("duplicate attendance for student %s on %s", record.StudentID, record.Date))
		}
		seen[k] = struct{}{}
	}
	return findings
}
