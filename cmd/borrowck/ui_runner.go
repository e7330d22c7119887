package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"borrowck/internal/driver"
	"borrowck/internal/ir"
	"borrowck/internal/ui"
)

type verifyOutcome struct {
	result *driver.Result
	err    error
}

// runVerifyWithUI drives verification in a goroutine while a Bubble Tea
// program renders progress from the driver's observer events. The UI never
// affects the result: when it errors the verification outcome still wins.
func runVerifyWithUI(ctx context.Context, title string, names []string, unit *ir.Unit, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan verifyOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Observer = func(ev driver.Event) {
			events <- ev
		}
		res, err := driver.VerifyUnit(ctx, unit, optsCopy)
		outcomeCh <- verifyOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewVerifyModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if outcome.err != nil {
		return outcome.result, outcome.err
	}
	return outcome.result, uiErr
}
