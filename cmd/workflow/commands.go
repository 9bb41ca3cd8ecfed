package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hacking-linux/workflow/pkg/api"
	"github.com/hacking-linux/workflow/pkg/engine"
	"github.com/hacking-linux/workflow/pkg/flow"
	"github.com/hacking-linux/workflow/pkg/schedule"
	"github.com/hacking-linux/workflow/pkg/storage"
)

// Exit codes for the run command
const (
	exitFailed   = 1
	exitNotFound = 2
)

func newRunCmd() *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "run <flow-name>",
		Short: "Execute a flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			seed := engine.Context{}
			for _, p := range params {
				key, value, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("invalid --param %q, expected key=value", p)
				}
				seed[key] = value
			}

			result, err := a.executor.Run(context.Background(), args[0], seed)

			out, _ := json.MarshalIndent(result.Context, "", "  ")
			fmt.Println(string(out))

			switch result.Status {
			case engine.StatusNotFound:
				fmt.Fprintf(os.Stderr, "flow %q not found\n", args[0])
				os.Exit(exitNotFound)
			case engine.StatusFailed:
				fmt.Fprintf(os.Stderr, "flow %q failed at step %q: %v\n", args[0], result.FailedStep, err)
				os.Exit(exitFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "Seed context entry as key=value (repeatable)")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all flow records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.store.List()
			if err != nil {
				return err
			}

			fmt.Printf("%-30s %-8s %-8s\n", "NAME", "ENABLED", "DELETED")
			for _, r := range records {
				fmt.Printf("%-30s %-8t %-8t\n", r.Name, r.Enabled, r.Deleted)
			}
			return nil
		},
	}
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> <file>",
		Short: "Create a flow from a definition file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			definition, err := readDefinition(args[1])
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Create(storage.FlowRecord{
				Name:       args[0],
				Definition: definition,
				Enabled:    true,
			}); err != nil {
				return err
			}
			fmt.Printf("Flow %q created\n", args[0])
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a flow definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			record, err := a.store.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Println(record.Definition)
			return nil
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <name> <file>",
		Short: "Replace a flow definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			definition, err := readDefinition(args[1])
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Update(args[0], definition); err != nil {
				return err
			}
			fmt.Printf("Flow %q updated\n", args[0])
			return nil
		},
	}
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old-name> <new-name>",
		Short: "Rename a flow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Rename(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Flow %q renamed to %q\n", args[0], args[1])
			return nil
		},
	}
}

func newEnableCmd() *cobra.Command {
	return flagCmd("enable", "Enable a flow", func(a *app, name string) error {
		return a.store.Enable(name)
	})
}

func newDisableCmd() *cobra.Command {
	return flagCmd("disable", "Disable a flow", func(a *app, name string) error {
		return a.store.Disable(name)
	})
}

func newDeleteCmd() *cobra.Command {
	return flagCmd("delete", "Soft-delete a flow", func(a *app, name string) error {
		return a.store.Delete(name)
	})
}

func flagCmd(use, short string, op func(*app, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := op(a, args[0]); err != nil {
				return err
			}
			fmt.Printf("Flow %q %sd\n", args[0], use)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and configured schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			scheduler := schedule.NewScheduler(a.executor, a.logger)
			for _, sc := range a.cfg.Schedules {
				if err := scheduler.Add(sc.Spec, sc.Flow); err != nil {
					return err
				}
			}
			scheduler.Start()
			defer scheduler.Stop()

			server := api.NewServer(a.cfg.Server.Host, a.cfg.Server.Port, a.store, a.executor, a.logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
				ctx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout)
				defer cancel()
				return server.Stop(ctx)
			}
		},
	}
}

// readDefinition loads and validates a definition file before it is stored
func readDefinition(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read definition file: %w", err)
	}
	if _, err := flow.Parse(data); err != nil {
		return "", err
	}
	return string(data), nil
}
