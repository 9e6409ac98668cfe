// Package config loads the optional oxbuild.cue workspace settings file.
//
// Settings are typed via a built-in CUE schema and validated twice: the
// CUE unification rejects unknown or mistyped fields with source
// positions, and the decoded Go struct is checked with validator tags.
// Settings only provide defaults; command-line flags always win.
package config
