package media

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool describes one external binary the pipeline depends on.
type Tool struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
}

// DependencyStatus resolves each named command on PATH.
func DependencyStatus(commands map[string]string) []Tool {
	tools := make([]Tool, 0, len(commands))
	for _, name := range []string{"yt-dlp", "ffprobe", "ffmpeg"} {
		command, ok := commands[name]
		if !ok {
			continue
		}
		tool := Tool{Name: name, Command: command}
		if path, err := exec.LookPath(command); err == nil {
			tool.Available = true
			tool.Path = path
		}
		tools = append(tools, tool)
	}
	return tools
}

// CheckDependencies returns an error naming every missing tool.
func CheckDependencies(tools []Tool) error {
	var missing []string
	for _, t := range tools {
		if !t.Available {
			missing = append(missing, fmt.Sprintf("%s (%s)", t.Name, t.Command))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing dependency: %s not found on PATH", strings.Join(missing, ", "))
	}
	return nil
}
