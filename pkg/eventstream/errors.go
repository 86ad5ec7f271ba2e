package eventstream

import "errors"

// ErrNilPageEvent indicates a nil page event payload was provided to a publisher.
var ErrNilPageEvent = errors.New("nil page event")
