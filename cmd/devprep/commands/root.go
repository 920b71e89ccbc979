// Package commands wires the devprep CLI: the cobra command tree, flag
// handling, and the glue between flags and the provisioning pipelines.
package commands

import (
	"fmt"
	"os"

	"github.com/devprep/devprep/internal/version"
	"github.com/devprep/devprep/pkg/config"
	devpreperr "github.com/devprep/devprep/pkg/errors"
	"github.com/devprep/devprep/pkg/invoker"
	"github.com/devprep/devprep/pkg/logging"
	"github.com/devprep/devprep/pkg/prompt"
	"github.com/devprep/devprep/pkg/provision"
	"github.com/devprep/devprep/pkg/steps"
	"github.com/devprep/devprep/pkg/style"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootFlags carries the global flag values shared by all subcommands.
type rootFlags struct {
	verbosity  int
	assumeYes  bool
	dryRun     bool
	configPath string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:     "devprep",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVarP(&flags.assumeYes, "yes", "y", false, MsgFlagYes)
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", MsgFlagConfig)

	rootCmd.AddCommand(newPrepareCmd(flags))
	rootCmd.AddCommand(newDockerCmd(flags))
	rootCmd.AddCommand(newOpenCVCmd(flags))
	rootCmd.AddCommand(newGenconfigCmd())
	rootCmd.AddCommand(newDocsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

var versionCmdTemplate = `devprep version %s
  commit: %s
  built:  %s
`

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), versionCmdTemplate, version.Version, version.Commit, version.Date)
		},
	}
}

// newProvisioner builds the provisioner a pipeline command runs with.
func newProvisioner(flags *rootFlags) (*provision.Provisioner, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	var inv invoker.Invoker = invoker.NewOS()
	if flags.dryRun {
		inv = invoker.NewDryRun(inv)
	}

	return provision.New(provision.Options{
		Config:   cfg,
		Invoker:  inv,
		Gate:     prompt.New(prompt.WithAssumeYes(flags.assumeYes)),
		Reporter: style.NewStepReporter(os.Stdout),
	}), nil
}

// runPipeline executes one pipeline and maps its terminal state to the
// process exit status: a summary decline or an aborted run both exit 1.
// The command context carries SIGINT/SIGTERM cancellation from main.
func runPipeline(flags *rootFlags, pipeline func(*provision.Provisioner) (steps.RunResult, error)) error {
	p, err := newProvisioner(flags)
	if err != nil {
		return err
	}

	result, err := pipeline(p)
	if err != nil {
		if devpreperr.IsCode(err, devpreperr.ErrUserDeclined) {
			log.Info().Msg("Declined at summary, nothing done")
		}
		return err
	}

	if result.Status == steps.StatusAborted {
		return result.Err
	}
	return nil
}

func newPrepareCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: MsgPrepareShort,
		Long:  MsgPrepareLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(flags, func(p *provision.Provisioner) (steps.RunResult, error) {
				return p.Prepare(cmd.Context())
			})
		},
	}
}

func newDockerCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "docker",
		Short: MsgDockerShort,
		Long:  MsgDockerLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(flags, func(p *provision.Provisioner) (steps.RunResult, error) {
				return p.Docker(cmd.Context())
			})
		},
	}
}

func newOpenCVCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "opencv",
		Short: MsgOpenCVShort,
		Long:  MsgOpenCVLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(flags, func(p *provision.Provisioner) (steps.RunResult, error) {
				return p.OpenCV(cmd.Context())
			})
		},
	}
}
