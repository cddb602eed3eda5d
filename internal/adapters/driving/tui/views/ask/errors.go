package ask

import "errors"

// ErrNoPipelineService indicates that no pipeline service was provided.
var ErrNoPipelineService = errors.New("pipeline service is required")
