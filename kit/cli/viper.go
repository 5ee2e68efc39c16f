package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Opt is a single command-line option
type Opt struct {
	DestP   interface{} // pointer to the destination
	Flag    string
	Default interface{}
	Desc    string
	// Persistent options are inherited by subcommands.
	Persistent bool
}

// NewViper returns a viper instance that reads env vars prefixed with
// the upper-case version of name.
//
// This normalizes "-" to an underscore in env names, so the flag
// metrics-file is read from NAME_METRICS_FILE.
func NewViper(name string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(name))
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	return v
}

// BindOptions adds opts to the specified command and registers those
// options with v. Values found in the environment become the defaults
// that explicit flags override.
//
// An environment value that cannot be parsed leaves the default in place
// and is reported in the returned error, after every option is bound.
func BindOptions(v *viper.Viper, cmd *cobra.Command, opts []Opt) error {
	var envErr error
	for _, o := range opts {
		fs := cmd.Flags()
		if o.Persistent {
			fs = cmd.PersistentFlags()
		}

		switch destP := o.DestP.(type) {
		case *string:
			var d string
			if o.Default != nil {
				d = o.Default.(string)
			}
			fs.StringVar(destP, o.Flag, d, o.Desc)
			mustBindPFlag(v, o.Flag, fs)
			*destP = v.GetString(o.Flag)
		case *bool:
			var d bool
			if o.Default != nil {
				d = o.Default.(bool)
			}
			fs.BoolVar(destP, o.Flag, d, o.Desc)
			mustBindPFlag(v, o.Flag, fs)
			*destP = v.GetBool(o.Flag)
		case *zapcore.Level:
			var d zapcore.Level
			if o.Default != nil {
				d = o.Default.(zapcore.Level)
			}
			LevelVar(fs, destP, o.Flag, d, o.Desc)
			mustBindPFlag(v, o.Flag, fs)
			if s := v.GetString(o.Flag); s != "" {
				if err := destP.Set(s); err != nil && envErr == nil {
					envErr = fmt.Errorf("invalid %s %q from environment: %w", o.Flag, s, err)
				}
			}
		default:
			panic(fmt.Errorf("unknown destination type %T", o.DestP))
		}
	}
	return envErr
}

func mustBindPFlag(v *viper.Viper, key string, fs *pflag.FlagSet) {
	if err := v.BindPFlag(key, fs.Lookup(key)); err != nil {
		panic(err)
	}
}
