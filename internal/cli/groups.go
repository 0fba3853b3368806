package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"taskhub/internal/domain"
)

func parseIDArg(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func newGroupsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Manage task groups",
	}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the groups you can see",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			v := e.board.Groups(cmd.Context(), s.UserID, query)
			out := cmd.OutOrStdout()
			if v.Fallback {
				fmt.Fprintln(out, "warning: showing only groups you own, shared groups are unavailable")
			}
			if len(v.Groups) == 0 {
				fmt.Fprintln(out, "No groups found.")
				return nil
			}
			tw := table(out)
			fmt.Fprintln(tw, "ID\tNAME\tOWNER")
			for _, g := range v.Groups {
				fmt.Fprintf(tw, "%d\t%s\t%d\n", g.ID, g.Name, g.OwnerID)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "Filter by name")

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			g, err := e.runner.CreateGroup(cmd.Context(), s.UserID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created group %d %q\n", g.ID, g.Name)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <group-id>",
		Short: "Delete a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("group id", args[0])
			if err != nil {
				return err
			}
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			if err := e.board.DeleteGroup(cmd.Context(), s.UserID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted group %d\n", id)
			return nil
		},
	}

	share := &cobra.Command{
		Use:   "share <group-id> <user-id>",
		Short: "Share a group with a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gid, err := parseIDArg("group id", args[0])
			if err != nil {
				return err
			}
			uid, err := parseIDArg("user id", args[1])
			if err != nil {
				return err
			}
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			already, err := e.board.Share(cmd.Context(), s.UserID, gid, uid)
			if err != nil {
				return err
			}
			if already {
				fmt.Fprintf(cmd.OutOrStdout(), "User %d already has access to group %d\n", uid, gid)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shared group %d with user %d\n", gid, uid)
			return nil
		},
	}

	members := &cobra.Command{
		Use:   "members <group-id>",
		Short: "Show who a group is shared with",
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
			r, err := e.board.Roster(cmd.Context(), s.UserID, gid)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printUsers(out, "Shared with", r.Shared)
			printUsers(out, "Available", r.Available)
			return nil
		},
	}

	cmd.AddCommand(list, create, del, share, members)
	return cmd
}

func printUsers(w io.Writer, title string, users []domain.User) {
	fmt.Fprintf(w, "%s (%d):\n", title, len(users))
	for _, u := range users {
		fmt.Fprintf(w, "  %d\t%s\n", u.ID, u.DisplayName())
	}
}
