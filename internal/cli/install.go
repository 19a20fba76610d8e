package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Show installation instructions",
	Long:  `Display instructions for wiring pyshell into your shell.`,
	Run:   runInstall,
}

func runInstall(cmd *cobra.Command, args []string) {
	// Try to find the binary path
	binaryPath, err := os.Executable()
	if err != nil {
		binaryPath = "/usr/local/bin/pyshell"
	} else {
		binaryPath, _ = filepath.Abs(binaryPath)
	}

	fmt.Printf(`pyshell Shell Integration
=========================

Current binary location: %s

Option 1: prompt hook (recommended)

   Add to ~/.bashrc or ~/.zshrc:
      eval "$(pyshell hook)"

   Entering a project directory then activates its environment in your
   current shell, and leaving deactivates it.

Option 2: manual activation

   Run inside a project:
      eval "$(pyshell export)"
   and later:
      eval "$(pyshell export --deactivate)"

Option 3: login shell

   1. Add pyshell to /etc/shells (requires root):
      sudo sh -c 'echo %s >> /etc/shells'

   2. Set it as your default shell:
      chsh -s %s

   3. Open a new terminal. Login shells are invoked with argv[0]
      prefixed with '-'; pyshell detects this and drops you straight
      into the active environment's subshell.

   To revert:
      chsh -s /bin/bash  # or your preferred shell

Note: the first setup in a project provisions the venv and installs
dependencies, so it takes longer. Every launch after that is instant.

`, binaryPath, binaryPath, binaryPath)
}
