package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/sync"
	"github.com/klauern/skillhub/internal/ui/tui"
)

// errCancelled is returned when the user backs out of a prompt.
var errCancelled = errors.New("cancelled")

// Terminal handles, replaced in tests.
var (
	stdin         io.Reader = os.Stdin
	isInteractive           = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	}
	runPicker = tui.RunPublishPicker
)

// terminalPrompter drives sync selection with the publish picker and reads
// changelogs line by line.
type terminalPrompter struct {
	in   *bufio.Reader
	out  io.Writer
	pick func([]sync.Candidate) (tui.PublishPickerResult, error)
}

var _ sync.Prompter = (*terminalPrompter)(nil)

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{
		in:   bufio.NewReader(stdin),
		out:  os.Stdout,
		pick: runPicker,
	}
}

// Select implements sync.Prompter.
func (p *terminalPrompter) Select(ctx context.Context, candidates []sync.Candidate) ([]sync.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := p.pick(candidates)
	if err != nil {
		return nil, fmt.Errorf("selection failed: %w", err)
	}
	if result.Action != tui.PublishActionPublish {
		return nil, errCancelled
	}
	return result.Selected, nil
}

// Changelog implements sync.Prompter.
func (p *terminalPrompter) Changelog(ctx context.Context, c sync.Candidate) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hint := "optional"
	if c.Classification == model.ClassificationNew {
		hint = "required"
	}
	fmt.Fprintf(p.out, "Changelog for %s@%s (%s): ", c.Bundle.Slug, c.NextVersion, hint)
	return p.readLine()
}

func (p *terminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (p *terminalPrompter) confirm(message string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", message)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
