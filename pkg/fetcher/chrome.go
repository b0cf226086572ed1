package fetcher

import (
	"os/exec"
	"path/filepath"

	"github.com/jmylchreest/pagewise/internal/logger"
)

// Common Chrome/Chromium binary names and install locations.
var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// FindChromePath returns the first Chrome/Chromium binary found on PATH or
// at a well-known location, or "" when there is none.
func FindChromePath() string {
	return findBinary(chromeBinaryNames)
}

func findBinary(names []string) string {
	for _, name := range names {
		// exec.LookPath checks absolute paths directly and searches PATH
		// for bare names.
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found browser binary", "name", filepath.Base(name), "path", path)
			return path
		}
	}
	return ""
}
