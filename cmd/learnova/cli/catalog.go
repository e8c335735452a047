package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/learnova/learnova/internal/navigation"
)

// CatalogLintOptions configures the catalog lint command.
type CatalogLintOptions struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// CatalogLintSummary is the JSON form of a lint run.
type CatalogLintSummary struct {
	OK           bool                `json:"ok"`
	Errors       []string            `json:"errors"`
	Unregistered map[string][]string `json:"unregistered"`
}

// LintCatalogs checks the catalogs for structural problems and permission
// tokens missing from the registry. It returns the process exit code:
// structural problems fail the run, unknown tokens only warn.
func LintCatalogs(catalogs navigation.Catalogs, opts CatalogLintOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	summary := CatalogLintSummary{Errors: []string{}, Unregistered: map[string][]string{}}
	if err := navigation.ValidateCatalogs(catalogs); err != nil {
		summary.Errors = flatten(err)
		sort.Strings(summary.Errors)
	}
	audiences := make([]string, 0, len(catalogs))
	for aud, c := range catalogs {
		if tokens := navigation.UnregisteredPermissions(c); len(tokens) > 0 {
			summary.Unregistered[string(aud)] = tokens
		}
		audiences = append(audiences, string(aud))
	}
	sort.Strings(audiences)
	summary.OK = len(summary.Errors) == 0

	if opts.JSONOutput {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "catalog lint: encode: %v\n", err)
			return 1
		}
	} else {
		for _, msg := range summary.Errors {
			_, _ = fmt.Fprintf(opts.Stderr, "error: %s\n", msg)
		}
		for _, aud := range audiences {
			for _, token := range summary.Unregistered[aud] {
				_, _ = fmt.Fprintf(opts.Stdout, "warning: %s catalog references unregistered permission %q\n", aud, token)
			}
		}
		if summary.OK {
			_, _ = fmt.Fprintf(opts.Stdout, "%d catalogs ok\n", len(catalogs))
		}
	}
	if !summary.OK {
		return 1
	}
	return 0
}

func flatten(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
