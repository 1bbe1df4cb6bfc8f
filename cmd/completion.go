package cmd

import (
	"fmt"
	"strings"
)

var completionCommands = []string{"tui", "ls", "add", "rm", "doctor", "tail", "init", "completion", "version", "help"}

var completionFlags = []string{
	"-store", "-store-path", "-key", "-encrypt", "-encrypt-key",
	"-persist-toggle", "-mouse", "-log-dir", "-log-level", "-log-format",
	"-help", "-version",
}

func completionCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("completion: expected one shell (bash|zsh|fish|powershell)")
	}

	words := strings.Join(completionCommands, " ")
	flags := strings.Join(completionFlags, " ")

	switch strings.ToLower(args[0]) {
	case "bash":
		fmt.Fprintf(stdout, `# tasklist bash completion
_tasklist() {
    local cur="${COMP_WORDS[COMP_CWORD]}"
    case "$cur" in
        -*) COMPREPLY=($(compgen -W "%s" -- "$cur")) ;;
        *)  COMPREPLY=($(compgen -W "%s" -- "$cur")) ;;
    esac
}
complete -F _tasklist tasklist
`, flags, words)
	case "zsh":
		fmt.Fprintf(stdout, `#compdef tasklist
_tasklist() {
    if [[ $PREFIX == -* ]]; then
        compadd -- %s
    else
        compadd -- %s
    fi
}
compdef _tasklist tasklist
`, flags, words)
	case "fish":
		fmt.Fprintln(stdout, "# tasklist fish completion")
		fmt.Fprintf(stdout, "complete -c tasklist -f -n '__fish_use_subcommand' -a '%s'\n", words)
		for _, f := range completionFlags {
			fmt.Fprintf(stdout, "complete -c tasklist -o %s\n", strings.TrimPrefix(f, "-"))
		}
	case "powershell", "pwsh":
		quoted := make([]string, 0, len(completionCommands)+len(completionFlags))
		for _, w := range append(append([]string{}, completionCommands...), completionFlags...) {
			quoted = append(quoted, "'"+w+"'")
		}
		fmt.Fprintf(stdout, `# tasklist PowerShell completion
Register-ArgumentCompleter -Native -CommandName tasklist -ScriptBlock {
    param($wordToComplete)
    @(%s) | Where-Object { $_ -like "$wordToComplete*" } |
        ForEach-Object { [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_) }
}
`, strings.Join(quoted, ", "))
	default:
		return fmt.Errorf("completion: unsupported shell %q", args[0])
	}
	return nil
}
