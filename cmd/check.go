// Package cmd implements the command-line interface for nezuko.
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/icon"
	"github.com/nezuko-cli/nezuko/style"
)

// CheckDependencies verifies that the configured player is installed.
// IINA is launched through open(1) and is not looked up.
func CheckDependencies(playerName string) {
	binary := strings.ToLower(strings.TrimSpace(playerName))
	if binary == "" {
		binary = "mpv"
	}
	if binary == "iina" {
		return
	}

	if _, err := exec.LookPath(binary); err != nil {
		printMissingDependencyError(binary)
		os.Exit(1)
	}
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install " + dep
	case constant.Linux:
		installCmd = "sudo apt install " + dep
	case constant.Windows:
		installCmd = "scoop install " + dep
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep))

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
