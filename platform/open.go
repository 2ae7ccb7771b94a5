package platform

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// SystemOpener opens URLs with the desktop's default handler.
type SystemOpener struct{}

func (SystemOpener) Open(ctx context.Context, url string) error {
	if strings.HasPrefix(url, "www.") {
		url = "https://" + url
	}
	name, args := openCommand(runtime.GOOS, url)
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("open %s: %w: %s", url, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
