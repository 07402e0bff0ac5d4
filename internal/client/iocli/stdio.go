package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/term"
)

// choiceAttempts сколько раз ReadChoice переспрашивает
const choiceAttempts = 3

// Stdio IO поверх потоков процесса
type Stdio struct {
	in     *bufio.Reader
	out    io.Writer
	inFile *os.File // для чтения без эха; nil для не-файлового ввода
	outTTY bool
}

func NewStdio() IO {
	return New(os.Stdin, os.Stdout)
}

// New собирает IO над произвольными потоками.
// Терминал определяется только для *os.File.
func New(in io.Reader, out io.Writer) *Stdio {
	s := &Stdio{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.inFile = f
	}
	if f, ok := out.(*os.File); ok {
		s.outTTY = term.IsTerminal(int(f.Fd()))
	}
	return s
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// ReadInput читает строку; последняя строка без перевода строки тоже считается
func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	line, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadPassword читает токен без эха. Токен из pipe читается как строка.
func (s *Stdio) ReadPassword(prompt string) (string, error) {
	if s.inFile == nil {
		return s.ReadInput(prompt)
	}

	s.Printf("%s", prompt)
	secret, err := term.ReadPassword(int(s.inFile.Fd()))
	s.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}

func (s *Stdio) ReadChoice(prompt string, choices []string) (string, error) {
	for range choiceAttempts {
		answer, err := s.ReadInput(fmt.Sprintf("%s [%s]: ", prompt, strings.Join(choices, "/")))
		if err != nil {
			return "", err
		}
		if slices.Contains(choices, answer) {
			return answer, nil
		}
		s.Printf("Unknown answer %q\n", answer)
	}
	return "", ErrNoChoice
}

func (s *Stdio) IsTerminal() bool {
	return s.outTTY
}
