package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/cmdqueue/internal/dispatcher"
	"github.com/dshills/cmdqueue/internal/invoker"
	"github.com/dshills/cmdqueue/internal/logging"
)

// console is the frame loop: ask, maybe enqueue, drain the queue.
type console struct {
	in     io.Reader
	out    io.Writer
	prompt string
	disp   *dispatcher.Dispatcher
	inv    *invoker.Invoker
	logger *logging.Logger

	hits int
}

// loop runs frames until input ends, the user quits or ctx is cancelled.
func (c *console) loop(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for frame := 1; ; frame++ {
		fmt.Fprintln(c.out, c.prompt)

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		quit, err := c.handle(line)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}

		if err := c.inv.Update(ctx); err != nil {
			if errors.Is(err, invoker.ErrPassLimit) {
				c.logger.WithError(err).WithField("frame", frame).Warn("queue not drained")
				continue
			}
			return err
		}
	}
}

// handle interprets one input line. It reports whether the user asked to quit.
//
//	1, true       enqueue a collision
//	0, false, ""  nothing happened this frame
//	say <text>    enqueue a message
//	lua <source>  enqueue a one-shot script
//	q, quit       stop
func (c *console) handle(line string) (bool, error) {
	word, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch strings.ToLower(word) {
	case "1", "true":
		id := c.hits
		c.hits++
		_, err := c.disp.Add(dispatcher.VariantCollision, id)
		return false, err
	case "0", "false", "":
		return false, nil
	case "say":
		_, err := c.disp.Add(dispatcher.VariantMessage, rest)
		return false, err
	case "lua":
		_, err := c.disp.Add(dispatcher.VariantScript, rest)
		return false, err
	case "q", "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unrecognized input %q", line)
	}
}
