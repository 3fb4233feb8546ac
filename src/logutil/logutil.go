package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"unicode/utf8"
)

const (
	logFileName  = "selection_context_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Setup enables file logging with basic size-based rotation (10MB, max 3 files).
// When disabled, logs are discarded so stdout stays clean for results.
func Setup(enableFileLogging bool) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enableFileLogging {
		log.SetOutput(io.Discard)
		return
	}
	rotateIfNeeded(logFileName)
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return
	}
	log.SetOutput(&rotatingWriter{f: f, name: logFileName})
}

// SetupVerbose sends logs to w in addition to the log file, if enabled.
func SetupVerbose(w io.Writer, enableFileLogging bool) {
	Setup(enableFileLogging)
	if enableFileLogging {
		log.SetOutput(io.MultiWriter(w, log.Writer()))
		return
	}
	log.SetOutput(w)
}

type rotatingWriter struct {
	f    *os.File
	name string
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotate(w.name)
		nf, err := os.OpenFile(w.name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func rotateIfNeeded(name string) {
	if st, err := os.Stat(name); err == nil && st.Size() > maxSizeBytes {
		rotate(name)
	}
}

// rotate shifts name -> .1 -> .2 -> .3, discarding the oldest.
func rotate(name string) {
	_ = os.Remove(archiveName(name, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(name, i), archiveName(name, i+1))
	}
	_ = os.Rename(name, archiveName(name, 1))
}

func archiveName(name string, n int) string {
	return filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.%d", filepath.Base(name), n))
}

// Redact shortens user text for logs: length plus the first and last 4 runes.
func Redact(s string) string {
	n := utf8.RuneCountInString(s)
	if n <= 8 {
		return fmt.Sprintf("[%d runes]", n)
	}
	r := []rune(s)
	return fmt.Sprintf("%q...%q [%d runes]", string(r[:4]), string(r[n-4:]), n)
}
