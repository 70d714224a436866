package report

import "github.com/roach88/ringaudit/internal/audit"

// Multi reports to each reporter in order and stops at the first error.
type Multi []audit.Reporter

// Report implements audit.Reporter.
func (m Multi) Report(r audit.TableResult) error {
	for _, rep := range m {
		if err := rep.Report(r); err != nil {
			return err
		}
	}
	return nil
}
