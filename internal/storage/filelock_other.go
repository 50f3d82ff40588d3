//go:build !unix

package storage

// lockFile is a no-op where flock is unavailable; concurrent savers then
// rely on the atomic rename alone.
func lockFile(string) (func() error, error) {
	return func() error { return nil }, nil
}
