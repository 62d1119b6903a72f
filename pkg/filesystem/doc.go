// Package filesystem provides implementations of the types.FS interface.
//
// Two implementations are available:
//   - NewOS() wraps the real OS filesystem and is used in production.
//   - NewAferoFS(fs) wraps any afero.Fs, letting tests run the whole
//     engine against an in-memory filesystem.
//
// All engine packages (manifest, reconcile, backup, apply) accept a
// types.FS instead of calling the os package directly, so the same code
// paths are exercised in tests and in production.
package filesystem
