// Package cli implements the drovercl command line client.
package cli

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/droverco/drover/dlq"
)

type CliClient struct {
	rootCmd *cobra.Command

	redisAddr string
	redisDB   int
}

func (c *CliClient) Exec() error {
	return c.rootCmd.Execute()
}

// NewCliClient builds the drovercl command tree. The demo subcommand is
// self-contained; the dlq subcommands talk to the redis deployment shared
// with droverd.
func NewCliClient() *CliClient {
	c := &CliClient{}

	rootCmd := &cobra.Command{
		Use:   "drovercl",
		Short: "Drovercl is a command-line client to the drover task queue",
		Run:   func(*cobra.Command, []string) {},
	}
	rootCmd.PersistentFlags().StringVar(&c.redisAddr, "redis_addr", "localhost:6379", "Redis address of the drover deployment")
	rootCmd.PersistentFlags().IntVar(&c.redisDB, "redis_db", 0, "Redis database of the drover deployment")

	c.rootCmd = rootCmd
	rootCmd.AddCommand(makeDemoCmd(c))
	rootCmd.AddCommand(makeDlqCmd(c))
	return c
}

func (c *CliClient) dlqQueue() dlq.Queue {
	client := redis.NewClient(&redis.Options{Addr: c.redisAddr, DB: c.redisDB})
	return dlq.NewRedis(client)
}

func (c *CliClient) context() context.Context {
	return context.Background()
}
