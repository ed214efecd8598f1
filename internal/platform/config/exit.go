package config

import (
	"fmt"
	"io"
	"os"
)

var exitFunc = os.Exit

// Exitf writes a formatted error message to stderr and exits with code 1.
// CLI entry points use it for unrecoverable startup failures.
func Exitf(format string, args ...any) {
	exitf(os.Stderr, format, args...)
}

func exitf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
	exitFunc(1)
}
