package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook [bash|zsh]",
	Short: "Print the shell prompt hook",
	Long: `Print a shell snippet that activates environments automatically.

Once installed, entering a project directory evaluates 'pyshell export'
and leaving it evaluates the deactivate counterpart. Projects are
recognized by a pyshell.toml or a set-up venv at their root. Directories
without one cost nothing at the prompt.

Install it by adding one line to your shell profile:

  bash (~/.bashrc):
    eval "$(pyshell hook bash)"

  zsh (~/.zshrc):
    eval "$(pyshell hook zsh)"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHook,
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

func runHook(cmd *cobra.Command, args []string) error {
	shell := ""
	if len(args) > 0 {
		shell = args[0]
	} else {
		shell = filepath.Base(os.Getenv("SHELL"))
	}

	snippet, err := hookSnippet(shell)
	if err != nil {
		return err
	}
	fmt.Print(snippet)
	return nil
}

// hookBody is shared between shells; only the registration tail
// differs. _PYSHELL_ROOT tracks which project the hook activated so it
// can tell its own activations from manually sourced venvs.
const hookBody = `_pyshell_find_root() {
    local dir="$PWD"
    while [ -n "$dir" ]; do
        if [ -f "$dir/pyshell.toml" ] || [ -f "$dir/.venv/pyvenv.cfg" ]; then
            printf '%s\n' "$dir"
            return 0
        fi
        dir="${dir%/*}"
    done
    return 1
}

_pyshell_hook() {
    if [ -n "${VIRTUAL_ENV-}" ] && [ -z "${_PYSHELL_ROOT-}" ]; then
        return
    fi

    local root
    root="$(_pyshell_find_root)" || root=""
    if [ "$root" = "${_PYSHELL_ROOT-}" ]; then
        return
    fi

    if [ -n "${_PYSHELL_ROOT-}" ]; then
        eval "$(cd "$_PYSHELL_ROOT" 2>/dev/null && pyshell export --deactivate 2>/dev/null)"
        unset _PYSHELL_ROOT
    fi
    if [ -n "$root" ]; then
        eval "$(cd "$root" && pyshell export 2>/dev/null)"
        if [ -n "${PYSHELL_ENV-}" ]; then
            _PYSHELL_ROOT="$root"
        fi
    fi
}
`

const hookBashTail = `
if [[ ";${PROMPT_COMMAND-};" != *";_pyshell_hook;"* ]]; then
    PROMPT_COMMAND="_pyshell_hook${PROMPT_COMMAND:+;$PROMPT_COMMAND}"
fi
`

const hookZshTail = `
autoload -Uz add-zsh-hook
add-zsh-hook precmd _pyshell_hook
`

// hookSnippet renders the prompt hook for a shell.
func hookSnippet(shell string) (string, error) {
	switch shell {
	case "bash":
		return hookBody + hookBashTail, nil
	case "zsh":
		return hookBody + hookZshTail, nil
	default:
		return "", fmt.Errorf("unsupported shell %q (bash and zsh are supported)", shell)
	}
}
