package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// NewSimHandler returns a handler that simulates work by interpreting its
// payload as a script, one step per line. Valid steps:
//
//	sleep <millis>
//	  sleep for millis milliseconds (aborts early if ctx is done)
//	block
//	  wait until ctx is done, then return ctx.Err(); used to exercise
//	  timeouts and cooperative cancellation
//	fail <message>
//	  return a retryable error
//	failperm <message>
//	  return a permanent error
//	panic <message>
//	  panic; used to exercise crash containment
//	result <text>
//	  set the bytes returned on success
//
// Lines starting with '#' are comments. An empty script completes
// immediately with no result.
func NewSimHandler() Handler {
	return HandlerFunc(runSim)
}

func runSim(ctx context.Context, payload []byte) ([]byte, error) {
	steps, err := parseSim(string(payload))
	if err != nil {
		return nil, Permanent(err)
	}
	var result []byte
	for _, step := range steps {
		out, err := step(ctx)
		if err != nil {
			return nil, err
		}
		if out != nil {
			result = out
		}
	}
	return result, nil
}

type simStep func(ctx context.Context) ([]byte, error)

func parseSim(script string) ([]simStep, error) {
	var steps []simStep
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		step, err := parseSimLine(line)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseSimLine(line string) (simStep, error) {
	splits := strings.SplitN(line, " ", 2)
	opcode, rest := splits[0], ""
	if len(splits) == 2 {
		rest = splits[1]
	}
	switch opcode {
	case "sleep":
		millis, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("error parsing <n> in sleep <n>: %s", err.Error())
		}
		return func(ctx context.Context) ([]byte, error) {
			select {
			case <-time.After(time.Duration(millis) * time.Millisecond):
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}, nil
	case "block":
		return func(ctx context.Context) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}, nil
	case "fail":
		return func(ctx context.Context) ([]byte, error) {
			return nil, errors.New(rest)
		}, nil
	case "failperm":
		return func(ctx context.Context) ([]byte, error) {
			return nil, Permanent(errors.New(rest))
		}, nil
	case "panic":
		return func(ctx context.Context) ([]byte, error) {
			panic(rest)
		}, nil
	case "result":
		out := []byte(rest)
		return func(ctx context.Context) ([]byte, error) {
			return out, nil
		}, nil
	}
	return nil, fmt.Errorf("unknown sim step %q", opcode)
}
