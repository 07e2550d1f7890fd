package logger

import (
	"io"

	"github.com/fatih/color" // Import the fatih/color package for colored console output
	"github.com/mattn/go-colorable"
)

// out is where every log line is written. It defaults to a colorable stdout
// so ANSI colors also render on Windows consoles, where the SDK update is usually run.
var out io.Writer = colorable.NewColorableStdout()

// Colorized printers for each level. They take an explicit writer so tests can
// capture the console output.
var (
	infoPrinter  = color.New(color.FgGreen).FprintfFunc()
	warnPrinter  = color.New(color.FgHiMagenta).FprintfFunc()
	errorPrinter = color.New(color.FgRed).FprintfFunc()
	debugPrinter = color.New(color.FgCyan).FprintfFunc()
)

// Info logs informational messages in green color.
// Green is used for progress lines such as extracted, moved and copied paths.
func Info(format string, a ...any) { infoPrinter(out, format, a...) }

// Warn logs warning messages in bright magenta color.
func Warn(format string, a ...any) { warnPrinter(out, format, a...) }

// Error logs error messages in red color.
// Red draws attention to paths that could not be moved or copied.
func Error(format string, a ...any) { errorPrinter(out, format, a...) }

// Debug logs debug messages in cyan color if enabled, otherwise is a no-op.
// It is reassigned by Init based on the --debug flag.
var Debug = func(format string, a ...any) {}

// Init initializes the logger package, specifically enabling or disabling debug logging.
// When enabled, Debug will print messages in cyan color.
// When disabled, Debug will be a no-op function that silently ignores debug logs.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = func(format string, a ...any) { debugPrinter(out, format, a...) }
	} else {
		Debug = func(format string, a ...any) {}
	}
}

// SetOutput redirects all log levels to w and returns the previous writer.
// Callers capturing plain text should also set color.NoColor.
func SetOutput(w io.Writer) io.Writer {
	prev := out
	out = w
	return prev
}
