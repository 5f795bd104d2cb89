// Package report holds the BuildReport produced by every build, successful or
// not. A Builder accumulates warnings, skipped libraries, collisions and
// errors while the pipeline runs; Finish freezes them into a Report that can
// be rendered as JSON for machines and as plain text for people debugging a
// bundle on a machine without development tools.
package report
