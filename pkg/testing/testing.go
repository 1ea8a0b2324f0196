// Package testing moves the working directory of a test binary to the project
// root, so every package logs into the same ./logs and finds the same fixtures.
//
// Blank-import it from a _test.go file:
//
//	import (
//		_ "liyu1981.xyz/platform-dashboard/pkg/testing"
//	)
package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
}
