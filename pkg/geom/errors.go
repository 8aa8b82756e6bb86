package geom

import "errors"

// Sentinel errors classifying every failure the pipeline can surface.
// Packages wrap these with fmt.Errorf("%w: ...") so callers can match
// with errors.Is.
var (
	// ErrInvalidArgument indicates malformed input: a non-positive
	// tolerance, mismatched point/normal counts, or a classifier
	// producing an unusable node id. The caller must fix the input and
	// resubmit; no partial state is retained.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedInput indicates input that exceeds a hard capacity
	// of the packed encodings: more distinct features or colors than
	// their reserved bit widths allow, or a vertex set that cannot fit
	// the maximum texture size. Values are never silently truncated.
	ErrUnsupportedInput = errors.New("unsupported input")
)
