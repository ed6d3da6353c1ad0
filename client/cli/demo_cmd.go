package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/droverco/drover/common/stats"
	"github.com/droverco/drover/dlq"
	"github.com/droverco/drover/jobstore/memory"
	"github.com/droverco/drover/runner"
	"github.com/droverco/drover/sched"
	"github.com/droverco/drover/sched/scheduler"
)

// makeDemoCmd runs a diamond-DAG workload against an embedded scheduler
// with simulated handlers and prints the event stream, so a new operator
// can watch gating, admission, and cascade without any deployment.
func makeDemoCmd(c *CliClient) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a self-contained diamond-DAG demo on an embedded scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
}

func runDemo() error {
	registry := runner.NewRegistry()
	registry.Register("sim", runner.NewSimHandler())

	config := scheduler.DefaultConfig()
	engine, err := scheduler.NewStatefulScheduler(
		memory.New(), dlq.NewMemory(), registry, config, stats.NilStatsReceiver())
	if err != nil {
		return err
	}
	defer engine.Stop()

	sub := engine.Subscribe()
	defer sub.Close()
	eventsDone := make(chan struct{})
	go func() {
		defer close(eventsDone)
		for ev := range sub.C {
			fmt.Printf("%-12s job:%s attempt:%d %s\n", ev.Kind, ev.JobId[:8], ev.Attempt, ev.Error)
		}
	}()

	ctx := context.Background()
	spec := func(script string, deps ...string) sched.JobSpec {
		return sched.JobSpec{
			Type:      "sim",
			Priority:  sched.Normal,
			Payload:   []byte(script),
			CPUUnits:  1,
			MemoryMB:  128,
			DependsOn: deps,
		}
	}

	prices, err := engine.Submit(ctx, spec("sleep 300\nresult prices"))
	if err != nil {
		return err
	}
	volumes, err := engine.Submit(ctx, spec("sleep 300\nresult volumes"))
	if err != nil {
		return err
	}
	analyze, err := engine.Submit(ctx, spec("sleep 200\nresult analysis", prices.Id, volumes.Id))
	if err != nil {
		return err
	}
	var finals []string
	for _, name := range []string{"trader_report", "risk_report", "send_notifications"} {
		r, err := engine.Submit(ctx, spec("sleep 100\nresult "+name, analyze.Id))
		if err != nil {
			return err
		}
		finals = append(finals, r.Id)
	}

	for _, id := range append([]string{prices.Id, volumes.Id, analyze.Id}, finals...) {
		waitCompleted(ctx, engine, id)
	}
	engine.Stop()
	<-eventsDone
	fmt.Println("demo complete")
	return nil
}

func waitCompleted(ctx context.Context, engine scheduler.Scheduler, id string) {
	for {
		job, err := engine.Get(ctx, id)
		if err == nil && job.Status.Terminal() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}
