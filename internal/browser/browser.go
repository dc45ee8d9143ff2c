// Package browser opens URLs in the default web browser, used for the
// payment page and for real-browser navigation.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// OpenURL opens the URL in the default browser, falling back to
// platform-specific commands when the portable path fails.
func OpenURL(url string) error {
	err := open.Run(url)
	if err == nil {
		return nil
	}
	log.Debugf("browser: open-golang failed: %v, trying platform commands", err)
	return openURLPlatformSpecific(url)
}

func openURLPlatformSpecific(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux":
		for _, candidate := range []string{"xdg-open", "x-www-browser", "firefox", "chromium", "google-chrome"} {
			if _, errLook := exec.LookPath(candidate); errLook == nil {
				cmd = exec.Command(candidate, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("browser: no browser launcher found")
		}
	default:
		return fmt.Errorf("browser: unsupported platform %s", runtime.GOOS)
	}
	if errStart := cmd.Start(); errStart != nil {
		return fmt.Errorf("browser: launch failed: %w", errStart)
	}
	return nil
}
