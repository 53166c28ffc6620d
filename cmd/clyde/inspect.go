package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/liangmanlin/readline"
	"github.com/minio/cli"

	"github.com/Neumenon/clyde/clyde"
)

func inspectCommand(e *env) cli.Command {
	return cli.Command{
		Name:      "inspect",
		Usage:     "browse a decoded file in an interactive shell",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			path, err := fileArg(c, "FILE")
			if err != nil {
				return err
			}
			ctx, cancel := interruptible()
			vals, hdr, err := clyde.DecodeFile(ctx, path, e.reg, e.decodeOptions()...)
			cancel()
			if err != nil {
				return err
			}
			if len(vals) == 0 {
				return fmt.Errorf("%s: %w", path, errNoInput)
			}
			e.logger.Debug("decoded", "path", path, "version", hdr.Version.String(), "values", len(vals))
			return runShell(filepath.Base(path), newNavigator(vals))
		},
	}
}

func runShell(name string, nav *navigator) error {
	items := make([]readline.PrefixCompleterInterface, len(navCommands))
	for i, cmd := range navCommands {
		items[i] = readline.PcItem(cmd)
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:            "(" + name + ")\033[31m>\033[0m ",
		AutoComplete:      readline.NewPrefixCompleter(items...),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	fmt.Fprintf(l.Stdout(), "%d value(s) decoded, type help for commands\n", len(nav.roots))
	for {
		line, err := l.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if nav.exec(line, l.Stdout()) {
			return nil
		}
		l.SetPrompt("(" + name + nav.pwd() + ")\033[31m>\033[0m ")
	}
}
