package repl

import (
	"os/exec"
	"runtime"
)

// openInBrowser hands the URL to the platform's URL opener. Start
// rather than Run: the browser outlives the command.
func openInBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
