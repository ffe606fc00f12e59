package extract

import "errors"

var (
	// ErrUnrecognizedShape indicates the model's JSON matched none of the
	// known item-list shapes.
	ErrUnrecognizedShape = errors.New("response does not match any known item list shape")

	// ErrNoItems indicates the response parsed fine but contained no valid
	// items after filtering. Distinct from a malformed response: it usually
	// means the source had no extractable menu content.
	ErrNoItems = errors.New("no valid menu items extracted")
)
