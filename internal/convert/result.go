package convert

import "fmt"

// Result tracks counts and errors from a conversion run.
type Result struct {
	FilesConverted int
	FilesFailed    int
	Sheets         int
	Teams          int
	People         int
	Stints         int
	Warnings       int
	Errors         []string
}

// Add merges another Result into this one.
func (r *Result) Add(other Result) {
	r.FilesConverted += other.FilesConverted
	r.FilesFailed += other.FilesFailed
	r.Sheets += other.Sheets
	r.Teams += other.Teams
	r.People += other.People
	r.Stints += other.Stints
	r.Warnings += other.Warnings
	r.Errors = append(r.Errors, other.Errors...)
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Failed reports whether any file failed.
func (r *Result) Failed() bool {
	return r.FilesFailed > 0 || len(r.Errors) > 0
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"files=%d failed=%d sheets=%d teams=%d people=%d stints=%d warnings=%d errors=%d",
		r.FilesConverted, r.FilesFailed, r.Sheets,
		r.Teams, r.People, r.Stints, r.Warnings,
		len(r.Errors),
	)
}
