package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"slices"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func initCmd() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively generate a configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", output)
				}
			}

			cfg, err := runInitWizard()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			// The file may contain bot tokens and passwords.
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return err
			}
			fmt.Printf("Wrote %s. Start the server with: loglink start -c %s\n", output, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "loglink.yaml", "Where to write the configuration")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func runInitWizard() (map[string]any, error) {
	var (
		bind          = "127.0.0.1:5000"
		channels      []string
		adminPassword string

		telegramToken      string
		telegramWebhookURL string

		waAccessToken   string
		waPhoneNumberID string
		waVerifyToken   string

		enableImgbb bool
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Description("Address the HTTP server binds to.").
				Value(&bind).
				Validate(func(s string) error {
					_, _, err := net.SplitHostPort(s)
					return err
				}),
			huh.NewMultiSelect[string]().
				Title("Chat channels").
				Description("Platforms to receive messages from.").
				Options(
					huh.NewOption("Telegram", "telegram"),
					huh.NewOption("WhatsApp", "whatsapp"),
				).
				Value(&channels).
				Validate(func(sel []string) error {
					if len(sel) == 0 {
						return errors.New("select at least one channel")
					}
					return nil
				}),
			huh.NewInput().
				Title("Admin password").
				Description("Protects /status and /admin endpoints. Leave empty to disable.").
				EchoMode(huh.EchoModePassword).
				Value(&adminPassword),
			huh.NewConfirm().
				Title("Enable imgbb image uploads?").
				Description("Media attachments are uploaded with each user's own imgbb API key.").
				Value(&enableImgbb),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram bot token").
				EchoMode(huh.EchoModePassword).
				Value(&telegramToken).
				Validate(notEmpty("bot token")),
			huh.NewInput().
				Title("Telegram webhook URL").
				Description("Public HTTPS URL Telegram delivers updates to, e.g. https://example.com/telegram/webhook").
				Value(&telegramWebhookURL).
				Validate(notEmpty("webhook URL")),
		).WithHideFunc(func() bool {
			return !slices.Contains(channels, "telegram")
		}),
		huh.NewGroup(
			huh.NewInput().
				Title("WhatsApp access token").
				EchoMode(huh.EchoModePassword).
				Value(&waAccessToken).
				Validate(notEmpty("access token")),
			huh.NewInput().
				Title("WhatsApp phone number ID").
				Value(&waPhoneNumberID).
				Validate(notEmpty("phone number ID")),
			huh.NewInput().
				Title("WhatsApp verify token").
				Description("Shared secret for Meta's webhook subscription handshake.").
				Value(&waVerifyToken).
				Validate(notEmpty("verify token")),
		).WithHideFunc(func() bool {
			return !slices.Contains(channels, "whatsapp")
		}),
	)

	if err := form.Run(); err != nil {
		return nil, err
	}

	modules := map[string]any{
		"store.sqlite":      map[string]any{},
		"relay.engine":      map[string]any{},
		"cron.housekeeping": map[string]any{},
	}

	gatewayCfg := map[string]any{"bind": bind}
	if adminPassword != "" {
		gatewayCfg["admin"] = map[string]any{
			"basic_user": "admin",
			"basic_pass": adminPassword,
		}
	}
	modules["gateway.http"] = gatewayCfg

	if slices.Contains(channels, "telegram") {
		modules["channel.telegram"] = map[string]any{
			"token":       telegramToken,
			"webhook_url": telegramWebhookURL,
		}
	}
	if slices.Contains(channels, "whatsapp") {
		modules["channel.whatsapp"] = map[string]any{
			"access_token":    waAccessToken,
			"phone_number_id": waPhoneNumberID,
			"verify_token":    waVerifyToken,
		}
	}
	if enableImgbb {
		modules["upload.imgbb"] = map[string]any{}
	}

	return map[string]any{
		"version": "1",
		"modules": modules,
	}, nil
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
