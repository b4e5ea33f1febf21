package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPasswords reads wallet passwords from the controlling terminal without echo.
type TerminalPasswords struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalPasswords prompts on stdin and writes prompts to stderr.
func NewTerminalPasswords() *TerminalPasswords {
	return &TerminalPasswords{In: os.Stdin, Out: os.Stderr}
}

// Password prompts for the password of an existing wallet.
// Caller must zero the returned slice after use for security.
func (p *TerminalPasswords) Password() ([]byte, error) {
	return p.read("Enter wallet password: ")
}

// NewPassword prompts twice for the password of a new wallet.
// An empty or whitespace-only answer returns an empty slice, meaning "store unencrypted".
// Caller must zero the returned slice after use for security.
func (p *TerminalPasswords) NewPassword() ([]byte, error) {
	first, err := p.read("Enter a password to encrypt the wallet (leave empty for none): ")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(first)) == 0 {
		clear(first)
		return nil, nil
	}

	second, err := p.read("Repeat password: ")
	if err != nil {
		clear(first)
		return nil, err
	}
	defer clear(second)

	if !bytes.Equal(first, second) {
		clear(first)
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}

func (p *TerminalPasswords) read(prompt string) ([]byte, error) {
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal: run the command interactively to enter password")
	}
	fmt.Fprint(p.Out, prompt)
	defer fmt.Fprintln(p.Out)

	raw, err := term.ReadPassword(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	password := make([]byte, len(raw))
	copy(password, raw)
	clear(raw)
	return password, nil
}

// ConsoleConfirmer asks the operator to type a literal token before a transaction is signed or submitted.
type ConsoleConfirmer struct {
	In  *bufio.Reader
	Out io.Writer
}

// NewConsoleConfirmer reads answers from in and writes the rendered transaction to out.
func NewConsoleConfirmer(in io.Reader, out io.Writer) *ConsoleConfirmer {
	return &ConsoleConfirmer{In: bufio.NewReader(in), Out: out}
}

// Confirm prints description and reports whether the operator typed exactly token.
// There is no timeout: the operator is the only cancellation source.
func (c *ConsoleConfirmer) Confirm(description, action, token string) (bool, error) {
	fmt.Fprintf(c.Out, "\nYou are about to %s a new transaction with the following details:\n\n%s\n", action, description)
	fmt.Fprintf(c.Out, "Would you like to %s this? (Enter %s to %s or anything else to cancel): ", action, token, action)

	line, err := c.In.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.TrimSpace(line) == token, nil
}
