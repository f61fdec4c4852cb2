package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/MANTRA-Chain/feemarket/server/config"
)

const (
	FlagHome   = "home"
	FlagOutput = "output"

	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// AppContext is the state shared by the commands, set up by the root command.
type AppContext struct {
	Home   string
	Viper  *viper.Viper
	Logger log.Logger
}

type appContextKey struct{}

// WithAppContext returns a copy of ctx carrying appCtx.
func WithAppContext(ctx context.Context, appCtx *AppContext) context.Context {
	return context.WithValue(ctx, appContextKey{}, appCtx)
}

// GetAppContextFromCmd returns the AppContext of the command.
// Commands run without the root pre-run get the defaults of an empty home.
func GetAppContextFromCmd(cmd *cobra.Command) *AppContext {
	if ctx := cmd.Context(); ctx != nil {
		if appCtx, ok := ctx.Value(appContextKey{}).(*AppContext); ok {
			return appCtx
		}
	}

	return &AppContext{
		Viper:  config.NewViper(""),
		Logger: log.NewNopLogger(),
	}
}

// LoadConfig reads and validates the config of the command.
func LoadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(GetAppContextFromCmd(cmd).Viper)
}

// AddOutputFlag registers the --output flag.
func AddOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP(FlagOutput, "o", OutputText, "output format (text|json|yaml)")
}

// PrintOutput prints v in the format selected by --output, text being rendered by printText.
func PrintOutput(cmd *cobra.Command, v interface{}, printText func(w io.Writer) error) error {
	format, err := cmd.Flags().GetString(FlagOutput)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case OutputText:
		return printText(out)
	case OutputJSON, OutputYAML:
		bz, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		if format == OutputYAML {
			if bz, err = yaml.JSONToYAML(bz); err != nil {
				return err
			}
		} else {
			bz = append(bz, '\n')
		}
		_, err = out.Write(bz)
		return err
	default:
		return fmt.Errorf("invalid output format %q, expected %s, %s or %s", format, OutputText, OutputJSON, OutputYAML)
	}
}
