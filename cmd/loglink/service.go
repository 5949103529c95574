package main

import (
	"fmt"

	"github.com/hankhank10/loglink-server/pkg/app"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// program adapts the application runner to the service manager lifecycle.
// Start must not block, so the blocking Run happens in a goroutine and
// failures stop the service manager's copy of the process.
type program struct {
	params app.RunParams
	runner *app.Runner
}

func (p *program) Start(_ service.Service) error {
	runner, err := app.New(p.params)
	if err != nil {
		return err
	}
	p.runner = runner
	return runner.Start()
}

func (p *program) Stop(_ service.Service) error {
	if p.runner != nil {
		p.runner.Stop()
	}
	return nil
}

func serviceCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:       "service <install|uninstall|start|stop|restart|run>",
		Short:     "Manage loglink as a system service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"install", "uninstall", "start", "stop", "restart", "run"},
		RunE: func(_ *cobra.Command, args []string) error {
			action := args[0]

			svcArgs := []string{"service", "run"}
			if cfgPath != "" {
				svcArgs = append(svcArgs, "--config", cfgPath)
			}

			svc, err := service.New(&program{
				params: app.RunParams{
					ConfigPath: cfgPath,
					Version:    version,
					Commit:     commit,
					Date:       date,
				},
			}, &service.Config{
				Name:        "loglink",
				DisplayName: "LogLink Server",
				Description: "Relays messages from chat platforms into Logseq",
				Arguments:   svcArgs,
			})
			if err != nil {
				return fmt.Errorf("creating service: %w", err)
			}

			if action == "run" {
				return svc.Run()
			}
			if err := service.Control(svc, action); err != nil {
				return fmt.Errorf("service %s: %w", action, err)
			}
			fmt.Printf("Service %s: done\n", action)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to configuration file")
	return cmd
}
