package keys

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chapool/subflow-agent/internal/util/command"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keys",
		newNew(),
		newEncrypt(),
		newAddress(),
	)
}

type prompter struct {
	in     *os.File
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in *os.File, out io.Writer) *prompter {
	return &prompter{in: in, reader: bufio.NewReader(in), out: out}
}

// ask reads one line. When the input is a terminal it is not echoed.
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)

	if fd := int(p.in.Fd()); term.IsTerminal(fd) { //nolint:gosec
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", errors.Wrap(err, "failed to read input")
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "failed to read input")
	}

	return strings.TrimSpace(line), nil
}
