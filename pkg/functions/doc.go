/*
Package functions provides the expression function library used by alert
workflow templates.

Every function is registered by name in a Library and invoked with positional
and keyword arguments of dynamic type (see Value). Functions are pure: apart
from utcnow, utcnowiso, is_business_hours and get_firing_time, which read the
injectable Clock, the result depends only on the arguments and the Config the
Library was built with.

Failures are *Error values whose Kind is one of LookupError, ArgumentError,
ParseError or RangeError; use errors.Is with ErrLookup, ErrArgument, ErrParse
or ErrRange to test for them.

	lib, err := functions.NewLibrary(logger, functions.DefaultConfig())
	if err != nil {
		return err
	}
	v, err := lib.CallAny("split", "a,b,c", ",")
*/
package functions
