package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"golang.org/x/term"
)

// Prompter asks for credentials on a terminal. Passwords are read without
// echo when the input is a terminal.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	hidden func() ([]byte, error)
}

// NewPrompter creates a prompter reading from in and writing prompts to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.hidden = func() ([]byte, error) { return term.ReadPassword(fd) }
	}
	return p
}

// Line prints label and reads one trimmed line
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// Password prints label and reads a secret
func (p *Prompter) Password(label string) (string, error) {
	if p.hidden == nil {
		return p.Line(label)
	}

	fmt.Fprintf(p.out, "%s: ", label)
	secret, err := p.hidden()
	fmt.Fprintln(p.out) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return string(secret), nil
}

// Credentials asks for login and password, skipping what is already known
func (p *Prompter) Credentials(login string) (string, string, error) {
	var err error
	if login == "" {
		if login, err = p.Line("Login"); err != nil {
			return "", "", err
		}
	}
	password, err := p.Password("Password")
	if err != nil {
		return "", "", err
	}
	return login, password, nil
}

// SignUpForm fills a registration request interactively
func (p *Prompter) SignUpForm(req domain.SignUpRequest) (domain.SignUpRequest, error) {
	var err error
	if req.Email == "" {
		if req.Email, err = p.Line("Email"); err != nil {
			return req, err
		}
	}
	if req.Username == "" {
		if req.Username, err = p.Line("Username"); err != nil {
			return req, err
		}
	}
	if req.Password, err = p.Password("Password"); err != nil {
		return req, err
	}
	if req.RepeatPassword, err = p.Password("Repeat password"); err != nil {
		return req, err
	}
	return req, nil
}
