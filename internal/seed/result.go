// Package seed loads converted archive documents into Postgres.
package seed

import "fmt"

// LoadResult tracks counts and errors from a load operation.
type LoadResult struct {
	FilesLoaded    int
	TeamsUpserted  int
	PeopleUpserted int
	Errors         []string
}

// Add merges another LoadResult into this one.
func (r *LoadResult) Add(other LoadResult) {
	r.FilesLoaded += other.FilesLoaded
	r.TeamsUpserted += other.TeamsUpserted
	r.PeopleUpserted += other.PeopleUpserted
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records an error message.
func (r *LoadResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *LoadResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the load operation.
func (r *LoadResult) Summary() string {
	return fmt.Sprintf(
		"files=%d teams=%d people=%d errors=%d",
		r.FilesLoaded, r.TeamsUpserted, r.PeopleUpserted,
		len(r.Errors),
	)
}
