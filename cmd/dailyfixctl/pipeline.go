package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dailyfix/internal/audit"
	"dailyfix/internal/ingest"
	"dailyfix/internal/mailsource"
	"dailyfix/internal/model"
	"dailyfix/internal/notify"
	"dailyfix/internal/priority"
	"dailyfix/internal/reply"
	"dailyfix/internal/repository"
	"dailyfix/internal/task"
	"dailyfix/internal/trust"
	"dailyfix/pkg/outbox"
)

// allHistory is the listing window used for mbox imports, wide enough to
// cover any archive.
const allHistory = 20 * 365 * 24 * time.Hour

// openDedup disables the Redis fast path for imports; the database
// unique constraint still prevents duplicates.
type openDedup struct{}

func (openDedup) AcquireOnce(context.Context, string, string) bool { return true }
func (openDedup) Release(context.Context, string, string)          {}

func (e *env) buildCoordinator(source mailsource.Source) (*ingest.Coordinator, error) {
	pool, err := e.db()
	if err != nil {
		return nil, err
	}
	pub, err := e.mq()
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	profileRepo := repository.NewSenderProfileRepository(pool)
	whitelistRepo := repository.NewWhitelistRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)
	interactionRepo := repository.NewInteractionRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	taskRepo := repository.NewTaskRepository(pool, activityRepo, interactionRepo, outboxRepo, e.logger)

	registry := trust.NewRegistry(whitelistRepo, profileRepo, e.logger)
	recorder := audit.NewRecorder(activityRepo, interactionRepo, e.logger)
	classifier := priority.NewRuleClassifier(recorder, e.logger)
	notifier := notify.NewAlertNotifier(pub, e.logger)
	taskService := task.NewService(taskRepo, userRepo, notifier, task.AssignToOwner(), e.logger)

	return ingest.NewCoordinator(
		source,
		messageRepo,
		userRepo,
		registry,
		taskService,
		classifier,
		openDedup{},
		allHistory,
		0,
		e.logger,
	), nil
}

func newImportCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "import [mbox file]",
		Short: "Import messages from a local mbox archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				source := mailsource.NewMboxSource(args[0])
				coordinator, err := e.buildCoordinator(source)
				if err != nil {
					return err
				}
				n, err := coordinator.Ingest(ctx, user)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d messages from %s\n", n, args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user email to import for")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newReprocessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess [message id]",
		Short: "Rerun classification for a stored message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad message id %q", args[0])
			}
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				// Reprocessing never talks to a mail source.
				coordinator, err := e.buildCoordinator(mailsource.NewMboxSource(""))
				if err != nil {
					return err
				}
				if err := coordinator.Reprocess(ctx, messageID); err != nil {
					return err
				}
				fmt.Printf("message %d reprocessed\n", messageID)
				return nil
			})
		},
	}
}

func newInteractionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interaction",
		Short: "Record message feedback",
	}

	var user, action, notes string
	recordCmd := &cobra.Command{
		Use:   "record [message id]",
		Short: "Record an OPENED or IGNORED mark for a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad message id %q", args[0])
			}
			kind, err := model.ParseInteractionType(action)
			if err != nil {
				return err
			}
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				pool, err := e.db()
				if err != nil {
					return err
				}
				recorder := audit.NewRecorder(
					repository.NewActivityLogRepository(pool),
					repository.NewInteractionRepository(pool),
					e.logger,
				)
				if err := recorder.RecordInteraction(ctx, messageID, user, kind, notes); err != nil {
					return err
				}
				fmt.Printf("recorded %s for message %d\n", kind, messageID)
				return nil
			})
		},
	}
	recordCmd.Flags().StringVar(&user, "user", "", "acting user email")
	recordCmd.Flags().StringVar(&action, "action", "", "OPENED or IGNORED")
	recordCmd.Flags().StringVar(&notes, "notes", "", "optional feedback notes")
	recordCmd.MarkFlagRequired("user")
	recordCmd.MarkFlagRequired("action")

	cmd.AddCommand(recordCmd)
	return cmd
}

func newReplyCmd() *cobra.Command {
	var body string

	cmd := &cobra.Command{
		Use:   "reply [message id]",
		Short: "Send a reply to the sender of a stored message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad message id %q", args[0])
			}
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				pool, err := e.db()
				if err != nil {
					return err
				}
				pub, err := e.mq()
				if err != nil {
					return err
				}
				svc := reply.NewService(
					repository.NewMessageRepository(pool),
					reply.NewMQSender(pub),
					e.logger,
				)
				if err := svc.SendReply(ctx, messageID, body); err != nil {
					return err
				}
				fmt.Printf("reply requested for message %d\n", messageID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "reply body")
	cmd.MarkFlagRequired("body")
	return cmd
}
