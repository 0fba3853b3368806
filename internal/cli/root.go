// Package cli implements taskctl, a terminal client for the task service.
package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskhub/internal/gateway"
	"taskhub/internal/membership"
	"taskhub/internal/service"
	"taskhub/internal/workflow"
)

// env is built once per invocation from config and, for commands that need
// it, the stored session.
type env struct {
	cfg     Config
	session Session
	client  *gateway.Client
	runner  *workflow.Runner
	board   *service.BoardService
	users   *service.UserService
	log     *logrus.Entry
	now     func() time.Time
}

// requireSession returns the current session and points the client at its token.
func (e *env) requireSession() (Session, error) {
	s, err := LoadSession(e.now())
	if err != nil {
		return Session{}, err
	}
	e.session = s
	e.client = e.client.WithToken(s.Token)
	e.wire()
	return s, nil
}

func (e *env) wire() {
	reconciler := membership.New(e.client,
		membership.WithProbeConcurrency(e.cfg.ProbeConcurrency),
		membership.WithLogger(e.log),
	)
	e.runner = workflow.NewRunner(e.client, nil, e.log)
	e.board = service.NewBoardService(e.client, reconciler, e.log)
	e.users = service.NewUserService(e.client)
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd(version string) *cobra.Command {
	e := &env{now: time.Now}
	v := viper.New()
	var verbose bool

	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "taskctl - command line client for the task service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			log.SetOutput(cmd.ErrOrStderr())
			log.SetLevel(logrus.WarnLevel)
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			e.log = logrus.NewEntry(log)

			cfg, err := LoadConfig(v)
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.client = gateway.New(cfg.BaseURL,
				gateway.WithTimeout(cfg.Timeout),
				gateway.WithLogger(e.log),
			)
			e.wire()
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().String("base-url", "", "Task service URL (overrides config)")
	_ = v.BindPFlag("base_url", root.PersistentFlags().Lookup("base-url"))

	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newGroupsCmd(e),
		newTasksCmd(e),
		newUsersCmd(e),
	)
	return root
}

// Execute runs the root command
func Execute(version string) error {
	root := NewRootCmd(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
