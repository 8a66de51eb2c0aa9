package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	contracts "dailyfix/contracts/mq"
	"dailyfix/internal/model"
	"dailyfix/internal/repository"
)

func newSyncCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Request an immediate mail sync for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				pub, err := e.mq()
				if err != nil {
					return err
				}
				payload := contracts.SyncRequestedPayload{UserEmail: user}
				if err := pub.Publish("sync.requested", payload); err != nil {
					return fmt.Errorf("publish sync request: %w", err)
				}
				fmt.Printf("sync requested for %s\n", user)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user email to sync")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var name, email, role string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				pool, err := e.db()
				if err != nil {
					return err
				}
				users := repository.NewUserRepository(pool)
				id, err := users.Insert(ctx, &model.User{
					Name:   name,
					Email:  email,
					Role:   role,
					Active: true,
				})
				if err != nil {
					return fmt.Errorf("insert user: %w", err)
				}
				fmt.Printf("user %d created: %s\n", id, email)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "display name")
	addCmd.Flags().StringVar(&email, "email", "", "email address")
	addCmd.Flags().StringVar(&role, "role", "user", "role (user or admin)")
	addCmd.MarkFlagRequired("email")

	cmd.AddCommand(addCmd)
	return cmd
}

func newSenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sender",
		Short: "Manage sender trust profiles",
	}

	var domain, trust string
	var promotional bool
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update the trust profile of a sender domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := model.ParseTrustLevel(trust)
			if err != nil {
				return err
			}
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				pool, err := e.db()
				if err != nil {
					return err
				}
				profiles := repository.NewSenderProfileRepository(pool)
				if err := profiles.Upsert(ctx, &model.SenderProfile{
					SenderDomain: domain,
					TrustLevel:   level,
					Promotional:  promotional,
				}); err != nil {
					return fmt.Errorf("upsert sender profile: %w", err)
				}
				fmt.Printf("sender %s set to %s\n", domain, level)
				return nil
			})
		},
	}
	setCmd.Flags().StringVar(&domain, "domain", "", "sender domain")
	setCmd.Flags().StringVar(&trust, "trust", "LOW", "trust level: HIGH, MEDIUM or LOW")
	setCmd.Flags().BoolVar(&promotional, "promotional", false, "mark the domain as promotional")
	setCmd.MarkFlagRequired("domain")

	cmd.AddCommand(setCmd)
	return cmd
}

func newWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the alert whitelist",
	}

	var domain string
	var enabled bool
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update the alert gate of a sender domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				pool, err := e.db()
				if err != nil {
					return err
				}
				whitelist := repository.NewWhitelistRepository(pool)
				if err := whitelist.Upsert(ctx, &model.AlertWhitelist{
					SenderDomain: domain,
					AlertEnabled: enabled,
				}); err != nil {
					return fmt.Errorf("upsert whitelist entry: %w", err)
				}
				fmt.Printf("whitelist %s alert_enabled=%v\n", domain, enabled)
				return nil
			})
		},
	}
	setCmd.Flags().StringVar(&domain, "domain", "", "sender domain")
	setCmd.Flags().BoolVar(&enabled, "enabled", true, "whether messages from the domain may raise alerts")
	setCmd.MarkFlagRequired("domain")

	cmd.AddCommand(setCmd)
	return cmd
}
