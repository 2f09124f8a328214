package voice

import "os"

// openFile is the hook Open's FileByOffset path calls to open a path on
// disk. It is a var so tests can substitute it; a replacement still has to
// return an *os.File.
var openFile = func(path string) (*os.File, error) {
	return os.Open(path)
}
