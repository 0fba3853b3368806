package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskhub/internal/domain"
)

func newTasksCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage tasks",
	}

	var query string
	list := &cobra.Command{
		Use:   "list <group-id>",
		Short: "List the tasks of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gid, err := parseIDArg("group id", args[0])
			if err != nil {
				return err
			}
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			tasks, err := e.board.GroupTasks(cmd.Context(), s.UserID, gid, query)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tASSIGNEE")
			for _, t := range tasks {
				assignee := "-"
				if t.AssignedTo != nil {
					assignee = fmt.Sprint(*t.AssignedTo)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Name, t.Status, assignee)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "Filter by name")

	show := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("task id", args[0])
			if err != nil {
				return err
			}
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			d, err := e.board.TaskDetail(cmd.Context(), s.UserID, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task %d: %s\n", d.Task.ID, d.Task.Name)
			fmt.Fprintf(out, "Status:      %s\n", d.Task.Status)
			if d.AssignedByName != "" {
				fmt.Fprintf(out, "Assigned by: %s\n", d.AssignedByName)
			}
			if d.AssignedToName != "" {
				fmt.Fprintf(out, "Assigned to: %s\n", d.AssignedToName)
			}
			if d.Roster != nil {
				printUsers(out, "Shared with", d.Roster.Shared)
			}
			return nil
		},
	}

	var assignTo int64
	var status string
	create := &cobra.Command{
		Use:   "create <group-id> <name>",
		Short: "Create a task, adding the assignee to the group first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gid, err := parseIDArg("group id", args[0])
			if err != nil {
				return err
			}
			st, err := domain.ParseStatus(status)
			if err != nil {
				return err
			}
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			nt := domain.NewTask{Name: args[1], Status: st, AssignedBy: s.UserID, GroupID: gid}
			if assignTo > 0 {
				nt.AssignedTo = domain.Int64(assignTo)
			}
			t, err := e.runner.AssignTask(cmd.Context(), nt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d %q\n", t.ID, t.Name)
			return nil
		},
	}
	create.Flags().Int64Var(&assignTo, "assign", 0, "User id to assign the task to")
	create.Flags().StringVar(&status, "status", string(domain.StatusPending), "Initial status")

	setStatus := &cobra.Command{
		Use:   "status <task-id> <PENDING|DONE|REJECTED>",
		Short: "Change a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("task id", args[0])
			if err != nil {
				return err
			}
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			t, err := e.board.ChangeStatus(cmd.Context(), s.UserID, id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", t.ID, t.Status)
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename <task-id> <name>",
		Short: "Rename a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("task id", args[0])
			if err != nil {
				return err
			}
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			t, err := e.board.RenameTask(cmd.Context(), s.UserID, id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d renamed to %q\n", t.ID, t.Name)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("task id", args[0])
			if err != nil {
				return err
			}
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			if err := e.board.DeleteTask(cmd.Context(), s.UserID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, show, create, setStatus, rename, del)
	return cmd
}
