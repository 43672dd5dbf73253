// Package language holds the per-language execution profiles.
//
// A profile describes everything needed to build and run one supported
// language inside the sandbox: the container image, the source file name,
// the optional compile command and the run command. Profiles are plain
// data records collected in an immutable Registry, so adding a language is
// a table entry rather than a code branch.
package language
