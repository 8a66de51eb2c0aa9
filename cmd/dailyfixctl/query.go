package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dailyfix/internal/audit"
	"dailyfix/internal/model"
	"dailyfix/internal/repository"
	"dailyfix/internal/task"
	"dailyfix/pkg/outbox"
)

// nopNotifier satisfies the task service for lifecycle commands, which
// never create tasks and therefore never publish.
type nopNotifier struct{}

func (nopNotifier) HighPriorityAlert(context.Context, *model.Message) {}

func (e *env) taskService() (*task.Service, error) {
	pool, err := e.db()
	if err != nil {
		return nil, err
	}
	activityRepo := repository.NewActivityLogRepository(pool)
	interactionRepo := repository.NewInteractionRepository(pool)
	taskRepo := repository.NewTaskRepository(pool, activityRepo, interactionRepo, outbox.NewRepository(pool), e.logger)
	userRepo := repository.NewUserRepository(pool)
	return task.NewService(taskRepo, userRepo, nopNotifier{}, task.AssignToOwner(), e.logger), nil
}

func printTasks(tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return
	}
	for _, t := range tasks {
		fmt.Printf("%d\t%s\t%s\t%s\tdue %s\t%s\n",
			t.ID, t.Status, t.Priority, t.Assignee,
			t.DueAt.Format("2006-01-02 15:04"), t.Title,
		)
	}
}

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and drive tasks",
	}

	var assignee, status string
	var messageID int64
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks by assignee or status",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				svc, err := e.taskService()
				if err != nil {
					return err
				}
				switch {
				case messageID != 0 && assignee != "":
					t, err := svc.BySourceMessageAndAssignee(ctx, messageID, assignee)
					if err != nil {
						return err
					}
					printTasks([]model.Task{*t})
				case assignee != "":
					tasks, err := svc.ByAssignee(ctx, assignee)
					if err != nil {
						return err
					}
					printTasks(tasks)
				case status != "":
					parsed, err := model.ParseTaskStatus(status)
					if err != nil {
						return err
					}
					tasks, err := svc.ByStatus(ctx, parsed)
					if err != nil {
						return err
					}
					printTasks(tasks)
				default:
					return fmt.Errorf("pass --assignee or --status")
				}
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&assignee, "assignee", "", "filter by assignee email")
	listCmd.Flags().StringVar(&status, "status", "", "filter by status: OPEN, COMPLETED or CANCELLED")
	listCmd.Flags().Int64Var(&messageID, "message", 0, "with --assignee, look up the task for a source message")

	var actor, remark string
	transition := func(use string, target model.TaskStatus) *cobra.Command {
		c := &cobra.Command{
			Use:   use + " [task id]",
			Short: fmt.Sprintf("Mark a task %s", target),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				taskID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("bad task id %q", args[0])
				}
				e := newEnv()
				return e.run(func(ctx context.Context) error {
					svc, err := e.taskService()
					if err != nil {
						return err
					}
					if err := svc.Transition(ctx, taskID, actor, target, remark); err != nil {
						return err
					}
					fmt.Printf("task %d %s\n", taskID, target)
					return nil
				})
			},
		}
		c.Flags().StringVar(&actor, "actor", "", "acting user email")
		c.Flags().StringVar(&remark, "remark", "", "optional remark, stored as feedback")
		c.MarkFlagRequired("actor")
		return c
	}

	var newAssignee string
	reassignCmd := &cobra.Command{
		Use:   "reassign [task id]",
		Short: "Reassign a task to another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad task id %q", args[0])
			}
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				svc, err := e.taskService()
				if err != nil {
					return err
				}
				if err := svc.Reassign(ctx, taskID, newAssignee); err != nil {
					return err
				}
				fmt.Printf("task %d reassigned to %s\n", taskID, newAssignee)
				return nil
			})
		},
	}
	reassignCmd.Flags().StringVar(&newAssignee, "to", "", "new assignee email")
	reassignCmd.MarkFlagRequired("to")

	historyCmd := &cobra.Command{
		Use:   "history [task id]",
		Short: "Show the audit trail of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad task id %q", args[0])
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
				entries, err := recorder.History(ctx, taskID)
				if err != nil {
					return err
				}
				for _, entry := range entries {
					fmt.Printf("%s\t%s\t%s\t%s\n",
						entry.PerformedAt.Format("2006-01-02 15:04:05"),
						entry.Action, entry.PerformedBy, entry.Remarks,
					)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(
		listCmd,
		transition("complete", model.TaskCompleted),
		transition("cancel", model.TaskCancelled),
		reassignCmd,
		historyCmd,
	)
	return cmd
}

func newMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Inspect stored messages",
	}

	var user, prio string
	var unprocessed bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List messages for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			return e.run(func(ctx context.Context) error {
				pool, err := e.db()
				if err != nil {
					return err
				}
				messages := repository.NewMessageRepository(pool)

				var list []model.Message
				switch {
				case unprocessed:
					list, err = messages.ListUnprocessed(ctx)
				case prio != "":
					parsed, perr := model.ParsePriority(prio)
					if perr != nil {
						return perr
					}
					list, err = messages.ListByUserAndPriority(ctx, user, parsed)
				default:
					list, err = messages.ListByUser(ctx, user)
				}
				if err != nil {
					return err
				}

				for _, m := range list {
					fmt.Printf("%d\t%s\t%s\t%s\t%v\t%s\n",
						m.ID, m.SenderDomain, m.Priority, m.Intent, m.Processed, m.Subject,
					)
				}
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&user, "user", "", "owner email")
	listCmd.Flags().StringVar(&prio, "priority", "", "filter by priority")
	listCmd.Flags().BoolVar(&unprocessed, "unprocessed", false, "list unprocessed messages across users")

	cmd.AddCommand(listCmd)
	return cmd
}
