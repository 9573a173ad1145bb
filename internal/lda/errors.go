package lda

import "errors"

// ErrPathEscape reports that a destination path resolved outside the job
// directory. This indicates a hostile or malformed filename and always aborts
// the job; it is never downgraded to a renamed write.
var ErrPathEscape = errors.New("artifact path escapes the job directory")

// ErrInputNotFound reports that the input CSV does not exist.
var ErrInputNotFound = errors.New("input csv does not exist")
