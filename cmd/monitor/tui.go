package monitor

import (
	"context"
	"fmt"
	"sort"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

// Run starts the terminal dashboard, polling client every pollInterval
// until the user quits (q or Ctrl-C) or ctx is cancelled.
func Run(ctx context.Context, client *Client, pollInterval time.Duration) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("monitor: termui init: %w", err)
	}
	defer ui.Close()

	table := widgets.NewTable()
	table.Title = "Session Table (live)"
	table.Rows = [][]string{{"session_id", "status", "flags"}}
	table.TextStyle = ui.NewStyle(ui.ColorWhite)
	table.RowSeparator = true
	table.SetRect(0, 0, 120, 30)

	status := widgets.NewParagraph()
	status.Title = "Status"
	status.SetRect(0, 30, 120, 33)

	render := func(err error) {
		if err != nil {
			status.Text = fmt.Sprintf("[error] %v", err)
		} else {
			status.Text = fmt.Sprintf("last updated %s — press q to quit", time.Now().Format(time.RFC3339))
		}
		ui.Render(table, status)
	}

	poll := func() {
		snaps, err := client.Fetch(ctx, 1)
		if err != nil {
			render(err)
			return
		}
		if len(snaps) == 0 {
			table.Rows = [][]string{{"session_id", "status", "flags"}}
			render(nil)
			return
		}

		latest := snaps[len(snaps)-1]
		rows := [][]string{{"session_id", "status", "flags"}}
		for _, s := range latest.Sessions {
			rows = append(rows, []string{s.SessionID, statusName(s.Status), formatFlags(s.Flags)})
		}
		table.Rows = rows
		render(nil)
	}

	poll()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	events := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			}
		case <-ticker.C:
			poll()
		}
	}
}

func statusName(s int) string {
	switch s {
	case -1:
		return "ERROR"
	case 0:
		return "UNKNOWN"
	case 1:
		return "CREATED"
	case 2:
		return "ACTIVE"
	case 3:
		return "PARTIAL_END"
	case 4:
		return "END"
	default:
		return fmt.Sprintf("?(%d)", s)
	}
}

func formatFlags(flags map[string]int) string {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", k, flags[k])
	}
	return out
}
