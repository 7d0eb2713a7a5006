package export

import "errors"

// Sentinel error kinds for model export. All of them are fatal for a run.
var (
	ErrNoModels          = errors.New("no models configured for export")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrModelLoad         = errors.New("cannot load model")
	ErrExportFailed      = errors.New("model export failed")
)
