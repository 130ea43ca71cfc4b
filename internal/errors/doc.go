// Package errors provides structured, coded errors for fsroute.
//
// Every user-facing failure carries a short code (e.g. "E201") that maps to
// a registered message, a longer explanation and a documentation link.
// Lower-level sentinel errors (fsscan.ErrBrokenSymlink, radix.ErrParamConflict)
// are kept as the wrapped cause so errors.Is keeps working through the chain.
//
// # Error Categories
//
//   - scan: directory enumeration failures (broken symlink, unreadable entry)
//   - compile: route table failures (misplaced wildcard, parameter conflicts)
//   - router: construction failures (unknown style, missing value producer)
//   - config: fsroute.json problems
//   - cli: command-line usage problems
//
// # Usage
//
//	err := errors.New("E201").
//	    WithPath("public/broken.txt").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// ERROR E201: Broken symbolic link
//	//
//	//   public/broken.txt
//	//
//	//   A symbolic link in the scanned tree points to a file that does not exist.
//	//
//	//   Learn more: https://fsroute.dev/docs/errors/E201
package errors
