// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - What the attached terminal supports.
//
// Hook invocations get their payload on a pipe; interactive runs fall back to
// flags. Output width and colour follow stdout.

package cli

import (
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	defaultWidth = 80
	minWidth     = 40
)

// fd returns the descriptor behind a stream. Test buffers have none.
func fd(stream any) (int, bool) {
	f, ok := stream.(*os.File)
	if !ok {
		return 0, false
	}
	return int(f.Fd()), true
}

// isTerminal reports whether stream is an interactive terminal.
func isTerminal(stream any) bool {
	n, ok := fd(stream)
	return ok && term.IsTerminal(n)
}

// terminalWidth is the column count of w, defaultWidth when w is not a
// terminal and never less than minWidth.
func terminalWidth(w io.Writer) int {
	n, ok := fd(w)
	if !ok {
		return defaultWidth
	}
	width, _, err := term.GetSize(n)
	switch {
	case err != nil || width <= 0:
		return defaultWidth
	case width < minWidth:
		return minWidth
	}
	return width
}

// colorOutput is decided once per process: NO_COLOR (https://no-color.org/)
// disables colour, FORCE_COLOR enables it, otherwise stdout must be a
// terminal.
var colorOutput = sync.OnceValue(func() bool {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return false
	case os.Getenv("FORCE_COLOR") != "":
		return true
	}
	return isTerminal(os.Stdout)
})

func colorProfile() termenv.Profile {
	if !colorOutput() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// glamourStyle picks the standard style the view command renders with.
func glamourStyle() string {
	switch {
	case !colorOutput():
		return "notty"
	case termenv.HasDarkBackground():
		return "dark"
	}
	return "light"
}
