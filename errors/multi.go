package errors

import (
	"bytes"
	"fmt"
)

// Errors represents a list of errors; any non-nil Errors value represents a
// non-empty list of errors, so clients may compare an Errors with nil to check
// for the absence of errors.
type Errors interface {
	error
	// Slice returns a non-empty slice of underlying non-nil errors.
	Slice() []error
	// Len is always > 0.
	Len() int

	append(e error) Errors
}

type list []error

func (l list) append(e error) Errors {
	return list(append(l, e))
}

func (l list) Slice() []error {
	return append([]error(nil), l...)
}

func (l list) Len() int {
	return len(l)
}

func (l list) Error() string {
	var b bytes.Buffer
	for i, err := range l {
		if i > 0 {
			fmt.Fprint(&b, "\n")
		}
		fmt.Fprint(&b, err)
	}
	return b.String()
}

// Append appends the given (possibly nil) error to the given (possibly nil)
// Errors. If the error is nil, it returns the given Errors unchanged.
func Append(errs Errors, err error) Errors {
	if err == nil {
		return errs
	}
	if errs == nil {
		return list{err}
	}
	if err, _ := err.(Errors); err != nil {
		for _, e := range err.Slice() {
			errs = errs.append(e)
		}
		return errs
	}
	return errs.append(err)
}

// Combine combines errors e & f into a single error
func Combine(e, f error) error {
	switch e := e.(type) {
	case nil:
		return f
	case Errors:
		// copy e to avoid mutating the backing array
		return Append(list(e.Slice()), f)
	default:
		switch f := f.(type) {
		case nil:
			return e
		case Errors:
			return Append(list{e}, f)
		default:
			return list{e, f}
		}
	}
}

// Defer is a helper for deferring error-returning functions
func Defer(err *error, f func() error) {
	*err = Combine(*err, f())
}
