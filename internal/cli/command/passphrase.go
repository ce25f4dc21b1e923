package command

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/bestelldesk-go/internal/cli/config"
)

var errNoPassphrase = fmt.Errorf("no passphrase: use --passphrase-file, %s or run on a terminal", config.PassphraseEnv)

func passphraseFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "passphrase-file",
		Aliases: []string{"P"},
		Usage:   "Read the passphrase from the first line of `FILE`",
	}
}

// readPassphrase returns the passphrase from --passphrase-file, the
// environment or a terminal prompt. With confirm set the prompt asks twice.
func readPassphrase(c *cli.Context, e *env, confirm bool) ([]byte, error) {
	if path := c.String("passphrase-file"); path != "" {
		return readPassphraseFile(path, e)
	}
	if v := os.Getenv(config.PassphraseEnv); v != "" {
		return []byte(v), nil
	}

	f, ok := e.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, errNoPassphrase
	}
	return promptPassphrase(int(f.Fd()), e, confirm)
}

func readPassphraseFile(path string, e *env) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("passphrase file: %w", err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		e.log.Warn("passphrase file is readable by other users", "path", path, "mode", info.Mode().Perm().String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("passphrase file: %w", err)
	}
	line := data
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return nil, errors.New("passphrase file: first line is empty")
	}

	pass := append([]byte(nil), line...)
	clear(data)
	return pass, nil
}

func promptPassphrase(fd int, e *env, confirm bool) ([]byte, error) {
	fmt.Fprint(e.stderr, "Passphrase: ")
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(e.stderr)
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	if len(pass) == 0 {
		return nil, errors.New("empty passphrase")
	}
	if !confirm {
		return pass, nil
	}

	fmt.Fprint(e.stderr, "Repeat passphrase: ")
	again, err := term.ReadPassword(fd)
	fmt.Fprintln(e.stderr)
	defer clear(again)
	if err != nil {
		clear(pass)
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	if !bytes.Equal(pass, again) {
		clear(pass)
		return nil, errors.New("passphrases do not match")
	}
	return pass, nil
}

// confirm asks a yes/no question on stderr and reads the answer from stdin.
func confirm(e *env, question string) bool {
	fmt.Fprintf(e.stderr, "%s [y/N]: ", question)
	answer, _ := bufio.NewReader(e.stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
