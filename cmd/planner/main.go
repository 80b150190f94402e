// Command planner is the planner CLI client.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/planner/client"
	"github.com/GoCodeAlone/planner/internal/version"
	"github.com/GoCodeAlone/planner/task"
)

var (
	flagServer  string
	flagJSON    bool
	flagNoColor bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "planner",
		Short:         "Planner CLI",
		Long:          "Manage agents and tasks on a planner Kanban board over its REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if flagNoColor {
				color.NoColor = true
			}
		},
	}

	server := os.Getenv("PLANNER_SERVER")
	if server == "" {
		server = client.DefaultServer
	}
	root.PersistentFlags().StringVar(&flagServer, "server", server, "planner server URL (or $PLANNER_SERVER)")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	root.AddCommand(versionCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(agentsCmd())
	root.AddCommand(tasksCmd())
	root.AddCommand(dashboardCmd())
	root.AddCommand(boardCmd())
	root.AddCommand(resetCmd())
	return root
}

func newClient() *client.Client { return client.New(flagServer) }

// --- version / status ---

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "planner %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.BuildDate)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := newClient().Status(cmd.Context())
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), st)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status:  %s\n", st["status"])
			fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", st["version"])
			return nil
		},
	}
}

// --- agents ---

func agentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage agents",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agents, err := newClient().ListAgents(cmd.Context())
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), agents)
			}
			printAgents(cmd.OutOrStdout(), agents)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name> <role>",
		Short: "Register an agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newClient().CreateAgent(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), a)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created agent %s\n", a.ID)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newClient().GetAgent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), a)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n  role: %s\n", bold(a.Name), dim("("+a.ID+")"), a.Role)
			return nil
		},
	})
	return cmd
}

// --- tasks ---

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}
	cmd.AddCommand(taskListCmd(), taskCreateCmd(), taskGetCmd(), taskUpdateCmd())
	cmd.AddCommand(taskDeleteCmd(), taskMoveCmd(), taskAssignCmd(), taskUnassignCmd())
	return cmd
}

func taskListCmd() *cobra.Command {
	var status, priority, assignee string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var f task.Filter
			if cmd.Flags().Changed("status") {
				f.Status = task.Ptr(task.Status(status))
			}
			if cmd.Flags().Changed("priority") {
				f.Priority = task.Ptr(task.Priority(priority))
			}
			if cmd.Flags().Changed("assignee") {
				f.AssignedTo = task.Ptr(assignee)
			}
			tasks, err := newClient().ListTasks(cmd.Context(), f)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status")
	cmd.Flags().StringVar(&priority, "priority", "", "Only tasks with this priority")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Only tasks assigned to this agent ID")
	return cmd
}

func taskCreateCmd() *cobra.Command {
	var description, priority string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task in todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := task.NewTask{Title: args[0], Description: description}
			if cmd.Flags().Changed("priority") {
				in.Priority = task.Ptr(task.Priority(priority))
			}
			t, err := newClient().CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			return showTask(cmd, t, "created task "+t.ID)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high (default medium)")
	return cmd
}

func taskGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := newClient().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), t)
			}
			printTask(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func taskUpdateCmd() *cobra.Command {
	var title, description, priority string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change title, description or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p task.Patch
			if cmd.Flags().Changed("title") {
				p.Title = task.Ptr(title)
			}
			if cmd.Flags().Changed("description") {
				p.Description = task.Ptr(description)
			}
			if cmd.Flags().Changed("priority") {
				p.Priority = task.Ptr(task.Priority(priority))
			}
			t, err := newClient().UpdateTask(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			return showTask(cmd, t, "updated task "+t.ID)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority")
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted task %s\n", args[0])
			return nil
		},
	}
}

func taskMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to another column (todo, in_progress, review, done)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := newClient().SetStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return showTask(cmd, t, fmt.Sprintf("task %s is now %s", t.ID, colorStatus(t.Status)))
		},
	}
}

func taskAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <agent-id>",
		Short: "Assign a task to an agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := newClient().Assign(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return showTask(cmd, t, fmt.Sprintf("task %s assigned to %s", t.ID, assigneeName(t)))
		},
	}
}

func taskUnassignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <id>",
		Short: "Clear a task's assignee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := newClient().Unassign(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return showTask(cmd, t, "task "+t.ID+" unassigned")
		},
	}
}

func showTask(cmd *cobra.Command, t task.Task, msg string) error {
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), t)
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

// --- board ---

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show task counts by status and priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newClient().Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}
			printSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Render the Kanban board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := newClient().ListTasks(cmd.Context(), task.Filter{})
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			printBoard(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every task and agent (server must enable reset)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			if err := newClient().Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "board reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
