package pdf

import (
	"os/exec"
	"runtime"
)

// ArtifactOpener opens a generated artifact in the host environment. The
// pipeline itself never shells out; only the boundary uses this capability.
type ArtifactOpener interface {
	OpenArtifact(path string) error
}

type osOpener struct{}

// NewOSOpener returns an ArtifactOpener backed by the platform's default
// document viewer.
func NewOSOpener() ArtifactOpener {
	return osOpener{}
}

func (osOpener) OpenArtifact(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
