package geom

import "fmt"

// ValidationError describes one problem found while probing a geometry
// list. Unlike the error returns on the pipeline entry points, a
// validation pass collects every problem instead of stopping at the
// first.
type ValidationError struct {
	Code    string
	Message string
	Index   int // position in the geometry list
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (geometry %d)", e.Code, e.Message, e.Index)
}

// Validator probes a geometry list for structural problems before it is
// handed to the mesh builder.
type Validator struct {
	list      GeometryList
	tolerance float64
}

// NewValidator creates a validator that probes primitive production at
// the given chord tolerance.
func NewValidator(list GeometryList, tolerance float64) *Validator {
	return &Validator{list: list, tolerance: tolerance}
}

// Validate produces primitives for every geometry and collects all
// structural violations. A nil result means the list is safe to build.
func (v *Validator) Validate() []ValidationError {
	var errs []ValidationError

	if v.tolerance <= 0 {
		errs = append(errs, ValidationError{
			Code:    "BAD_TOLERANCE",
			Message: fmt.Sprintf("chord tolerance must be positive, got %g", v.tolerance),
			Index:   -1,
		})
		return errs
	}

	for i, g := range v.list {
		if g == nil {
			errs = append(errs, ValidationError{
				Code:    "NIL_GEOMETRY",
				Message: "geometry list entry is nil",
				Index:   i,
			})
			continue
		}
		if g.DisplayParams() == nil {
			errs = append(errs, ValidationError{
				Code:    "NIL_DISPLAY_PARAMS",
				Message: "geometry has no display params",
				Index:   i,
			})
		}
		for _, p := range g.Polyfaces(v.tolerance) {
			if err := p.Validate(); err != nil {
				errs = append(errs, ValidationError{
					Code:    "MALFORMED_POLYFACE",
					Message: err.Error(),
					Index:   i,
				})
			}
		}
		for _, s := range g.Strokes(v.tolerance) {
			if err := s.Validate(); err != nil {
				errs = append(errs, ValidationError{
					Code:    "MALFORMED_STROKES",
					Message: err.Error(),
					Index:   i,
				})
			}
		}
	}

	return errs
}
