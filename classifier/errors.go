package classifier

import "errors"

// ErrClassifier is returned when the classifier could not be started or did
// not finish in time. It is recoverable: the file can be classified later.
var ErrClassifier = errors.New("classifier failed")
