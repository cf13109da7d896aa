package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/dyncast/internal/config"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
)

var (
	colorOnce sync.Once
	colorOn   bool
)

// useColor reports whether stderr is a terminal that accepts color.
func useColor() bool {
	colorOnce.Do(func() {
		if config.IsTestMode {
			return
		}
		// NO_COLOR convention: https://no-color.org/
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return
		}
		fd := os.Stderr.Fd()
		colorOn = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	})
	return colorOn
}

func paint(color, s string) string {
	if !useColor() {
		return s
	}
	return color + s + colorReset
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintln(w, paint(colorYellow, "warning: ")+msg)
	}
}
