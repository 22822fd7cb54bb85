// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package consolidate

import (
	"context"
	"errors"

	"github.com/pdiddy/pdf-consolidator/internal/merge"
	"github.com/pdiddy/pdf-consolidator/internal/naming"
	"github.com/pdiddy/pdf-consolidator/internal/source"
	"github.com/pdiddy/pdf-consolidator/internal/workspace"
)

// Remediation returns guidance for a failed run, phrased for the person
// operating the tool.
func Remediation(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoInputFiles):
		return "Put the documents to consolidate in the input folder and try again. Supported: " + source.SupportedDisplay()
	case errors.Is(err, naming.ErrInvalidIdentifiers):
		return "Fill in the identification number, client name and reimbursement number, without any of " + naming.InvalidChars
	case errors.Is(err, ErrNoFilesConverted):
		return "None of the files could be converted. Check the log for each file; word and spreadsheet documents need LibreOffice installed (or office.backend set to container)."
	case errors.Is(err, merge.ErrNoReadableSources):
		return "The converted files could not be read back as PDF. Check the input files are not damaged or password protected."
	case errors.Is(err, merge.ErrWriteFailed):
		return "The output PDF could not be written. Close it if it is open in a viewer and check that the output folder is writable."
	case errors.Is(err, workspace.ErrBusy):
		return "Another consolidation is using the scratch folder. Wait for it to finish and try again."
	case errors.Is(err, workspace.ErrUnsafeDir):
		return "The temp_dir setting points at a folder that holds other files. Set it to a dedicated folder such as temp."
	case errors.Is(err, context.Canceled):
		return "The run was cancelled; nothing was written and the input folder is unchanged."
	}
	return "Unexpected error; see the log file for details. The input folder is unchanged."
}
