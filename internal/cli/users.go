package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskhub/internal/domain"
)

func newUsersCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Administer users",
	}

	var activeOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.requireSession(); err != nil {
				return err
			}
			users, err := e.users.List(cmd.Context(), activeOnly)
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tACTIVE")
			for _, u := range users {
				fmt.Fprintf(tw, "%d\t%s\t%t\n", u.ID, u.DisplayName(), u.Active)
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&activeOnly, "active", false, "Only active users")

	var surname string
	var inactive bool
	create := &cobra.Command{
		Use:   "create <username> <password>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.requireSession(); err != nil {
				return err
			}
			u, err := e.users.Create(cmd.Context(), domain.NewUser{
				Username: args[0],
				Password: args[1],
				Surname:  surname,
				Active:   !inactive,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d %s\n", u.ID, u.DisplayName())
			return nil
		},
	}
	create.Flags().StringVar(&surname, "surname", "", "Surname")
	create.Flags().BoolVar(&inactive, "inactive", false, "Create the user deactivated")

	toggle := &cobra.Command{
		Use:   "toggle <user-id>",
		Short: "Activate or deactivate a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("user id", args[0])
			if err != nil {
				return err
			}
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			if err := e.users.Toggle(cmd.Context(), s.UserID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Toggled user %d\n", id)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("user id", args[0])
			if err != nil {
				return err
			}
			s, err := e.requireSession()
			if err != nil {
				return err
			}
			if err := e.users.Delete(cmd.Context(), s.UserID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, create, toggle, del)
	return cmd
}
