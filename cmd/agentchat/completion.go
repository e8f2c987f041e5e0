package main

import "fmt"

func completionMain(args []string) {
	shell := "bash"
	if len(args) > 0 && args[0] != "" {
		shell = args[0]
	}
	script, err := completionScript(shell)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(script)
}

func completionScript(shell string) (string, error) {
	switch shell {
	case "bash":
		return bashCompletion, nil
	case "zsh":
		return zshCompletion, nil
	default:
		return "", fmt.Errorf("unsupported shell: %s (use bash or zsh)", shell)
	}
}

const bashCompletion = `
_agentchat_completions()
{
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "plain ping render config features completion --config --prompt --plain --demo --enable --disable -c" -- "$cur") )
        return 0
    fi

    case "$prev" in
        --enable|--disable)
            COMPREPLY=( $(compgen -W "syntax_highlight timestamps demo_on_start alt_screen" -- "$cur") )
            return 0
            ;;
    esac

    case "${COMP_WORDS[1]}" in
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            ;;
        config)
            COMPREPLY=( $(compgen -W "show get set path --config" -- "$cur") )
            ;;
        ping)
            COMPREPLY=( $(compgen -W "--config --message --timeout -c" -- "$cur") )
            ;;
        render)
            COMPREPLY=( $(compgen -f -W "--format -c" -- "$cur") )
            ;;
        features)
            COMPREPLY=( $(compgen -W "-c" -- "$cur") )
            ;;
        *)
            COMPREPLY=( $(compgen -W "--config --prompt --plain --demo -c" -- "$cur") )
            ;;
    esac
}
complete -F _agentchat_completions agentchat
`

const zshCompletion = `
#compdef agentchat
_agentchat() {
    local -a subcmds
    subcmds=('plain:chat in line mode' 'ping:send one message to the configured agent' 'render:render markdown the way replies are shown' 'config:show or edit config.toml' 'features:list feature flags' 'completion:print shell completions')
    if (( CURRENT == 2 )); then
        _describe 'command' subcmds
        return
    fi
    case "$words[2]" in
        completion)
            _values 'shell' bash zsh
            ;;
        config)
            _values 'action' show get set path
            ;;
        ping)
            _arguments \
                '--config[Path to config file]' \
                '--message[Message to send]' \
                '--timeout[Timeout seconds]' \
                '-c[Override config value key=value]'
            ;;
        render)
            _arguments \
                '--format[Output format]:format:(ansi text yaml)' \
                '*:file:_files'
            ;;
        *)
            _arguments \
                '--config[Path to config file]' \
                '--prompt[Message to send on start]' \
                '--plain[Use line mode]' \
                '--demo[Load sample conversations]' \
                '-c[Override config value key=value]'
            ;;
    esac
}
_agentchat "$@"
`
