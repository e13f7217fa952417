package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/yanun0323/pkg/sys"

	"github.com/fatih-yavuz/kick-notifier/internal/bus"
)

// App is the terminal presentation layer: a chat pane, a debug-log pane and a
// status line. It only consumes events from the bus; the ingestion client
// never touches it directly.
type App struct {
	app      *tview.Application
	messages *tview.TextView
	logView  *tview.TextView
	status   *tview.TextView
}

// New builds the layout for the given channel name.
func New(channel string) *App {
	app := tview.NewApplication()

	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true).
		ScrollToEnd()
	messages.SetBorder(true).SetTitle(" " + channel + " ")

	logView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		ScrollToEnd()
	logView.SetBorder(true).SetTitle(" log ")

	status := tview.NewTextView().SetDynamicColors(true)
	status.SetText("[yellow]connecting…")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 3, false).
		AddItem(logView, 0, 1, false).
		AddItem(status, 1, 0, false)

	app.SetRoot(flex, true)

	return &App{
		app:      app,
		messages: messages,
		logView:  logView,
		status:   status,
	}
}

// Run consumes the queue and blocks inside the tview event loop until the
// context ends or the user quits with Ctrl+C.
func (a *App) Run(ctx context.Context, cancel context.CancelFunc, queue *bus.Queue) error {
	go func() {
		queue.Run(ctx, a.handle)
		a.app.QueueUpdateDraw(func() {})
	}()

	go func() {
		select {
		case <-ctx.Done():
		case <-sys.Shutdown():
			cancel()
		}
		a.app.Stop()
	}()

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			cancel()
			a.app.Stop()
			return nil
		}
		return event
	})

	return a.app.Run()
}

func (a *App) handle(e bus.Event) {
	a.app.QueueUpdateDraw(func() {
		switch e.Kind {
		case bus.KindChat:
			fmt.Fprintf(a.messages, "[white][%s] [blue]%s[white]: %s\n",
				e.At.Format("15:04:05"), tview.Escape(e.Username), tview.Escape(e.Content))
			a.messages.ScrollToEnd()
		case bus.KindLog:
			fmt.Fprintf(a.logView, "[gray][%s] %s\n", e.At.Format("15:04:05"), tview.Escape(e.Line))
			a.logView.ScrollToEnd()
		case bus.KindStatus:
			a.status.SetText(e.Line)
		}
	})
}
