package iocli

import "errors"

// ErrNoChoice возвращается, когда ответ не совпал ни с одним вариантом
var ErrNoChoice = errors.New("no valid choice")

//go:generate moq -out io_mock.go . IO

// IO ввод и вывод команд CLI
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	Write(p []byte) (n int, err error)
	ReadInput(prompt string) (string, error)
	// ReadPassword читает без эха, если ввод с терминала
	ReadPassword(prompt string) (string, error)
	// ReadChoice переспрашивает, пока ответ не совпадет с одним из choices
	ReadChoice(prompt string, choices []string) (string, error)
	// IsTerminal сообщает, выводится ли результат на терминал (иначе JSON)
	IsTerminal() bool
}
