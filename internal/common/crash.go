// -----------------------------------------------------------------------
// Crash Protection - Fatal error handling and crash file generation
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// crashLogDir is where crash reports land; set once from main.
var crashLogDir = "./logs"

// InstallCrashHandler prepares the crash report directory. Call at the
// start of main() together with a deferred RecoverWithCrashFile.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		crashLogDir = logDir
	}
	if err := os.MkdirAll(crashLogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to create log directory: %v\n", err)
	}
}

// RecoverWithCrashFile recovers a panic on the main goroutine, writes a
// crash report and exits non-zero.
//
// Usage: defer common.RecoverWithCrashFile()
func RecoverWithCrashFile() {
	r := recover()
	if r == nil {
		return
	}

	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	path := writeCrashFile(r, string(buf[:n]))

	if path != "" {
		fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\n", path)
	}
	fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
	os.Exit(1)
}

// writeCrashFile records the panic, both stack views and basic runtime
// stats. Returns the report path, or "" when the report could only go to
// stderr.
func writeCrashFile(panicVal interface{}, stack string) string {
	path := filepath.Join(crashLogDir,
		fmt.Sprintf("crash-%s.log", time.Now().Format("2006-01-02T15-04-05")))

	var report strings.Builder
	section := func(title, body string) {
		report.WriteString("=== " + title + " ===\n")
		report.WriteString(body)
		report.WriteString("\n\n")
	}

	section("PRAEDIUM CRASH REPORT", fmt.Sprintf(
		"Time: %s\nVersion: %s",
		time.Now().Format(time.RFC3339), GetFullVersion()))
	section("PANIC VALUE", fmt.Sprintf("%v", panicVal))
	section("STACK TRACE", stack)
	section("ALL GOROUTINES", allGoroutineStacks())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	section("RUNTIME", fmt.Sprintf(
		"NumGoroutine: %d\nNumCPU: %d\nGOOS/GOARCH: %s/%s\nAlloc: %d MB\nSys: %d MB\nNumGC: %d",
		runtime.NumGoroutine(), runtime.NumCPU(), runtime.GOOS, runtime.GOARCH,
		mem.Alloc/1024/1024, mem.Sys/1024/1024, mem.NumGC))

	if err := os.WriteFile(path, []byte(report.String()), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to write crash file: %v\n", err)
		fmt.Fprint(os.Stderr, report.String())
		return ""
	}
	return path
}

// allGoroutineStacks dumps every goroutine, growing the buffer until the
// dump fits (capped at 64MB).
func allGoroutineStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) || len(buf) >= 64*1024*1024 {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}
