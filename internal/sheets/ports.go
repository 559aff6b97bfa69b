// Package sheets renders reports as spreadsheet rows and writes them to an
// export target.
package sheets

import "context"

// Exporter replaces the contents of a named sheet.
type Exporter interface {
	Replace(ctx context.Context, sheet string, rows [][]string) error
}
