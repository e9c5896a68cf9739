package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lcsecurity/scamcheck/internal/controller"
	"github.com/lcsecurity/scamcheck/internal/predict"
	"github.com/lcsecurity/scamcheck/internal/styles"
)

var errCheckFailed = errors.New("one or more checks failed")

// maxLineSize bounds a single message read from stdin.
const maxLineSize = 1 << 20

// checkMessage runs one check and prints its verdict or error.
func checkMessage(ctx context.Context, ctrl *controller.Controller, text string, stdout, stderr io.Writer) error {
	state := ctrl.Check(ctx, text)
	if state.Status != controller.Succeeded || state.Result == nil {
		fmt.Fprintln(stderr, styles.ERROR(state.Error))
		return errCheckFailed
	}

	line := "Prediction: " + state.Result.String()
	fmt.Fprintln(stdout, styles.Verdict(state.Result.Label == predict.Malicious, line))
	return nil
}

// checkLines checks every non-blank line of r in order. All lines are
// checked even if some fail.
func checkLines(ctx context.Context, ctrl *controller.Controller, r io.Reader, stdout, stderr io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	failed := false
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := checkMessage(ctx, ctrl, line, stdout, stderr); err != nil {
			failed = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if failed {
		return errCheckFailed
	}
	return nil
}
