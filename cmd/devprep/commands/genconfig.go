package commands

import (
	"fmt"

	"github.com/devprep/devprep/pkg/config"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newGenconfigCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "genconfig",
		Short: MsgGenconfigShort,
		Long:  MsgGenconfigLong,
		Args:  cobra.NoArgs,
		Example: `  devprep genconfig > ~/.config/devprep/devprep.toml
  devprep genconfig --format yaml > ~/.config/devprep/devprep.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Default()
			if err != nil {
				return err
			}

			var out []byte
			switch format {
			case "toml":
				out, err = toml.Marshal(cfg)
			case "yaml":
				out, err = yaml.Marshal(cfg)
			default:
				return fmt.Errorf("unknown format %q (want toml or yaml)", format)
			}
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "toml", "Output format: toml or yaml")

	return cmd
}
