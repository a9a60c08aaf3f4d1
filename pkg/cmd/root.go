package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stleox/seecov/pkg/cmd/replay"
	"github.com/stleox/seecov/pkg/cmd/report"
	"github.com/stleox/seecov/pkg/config"
)

// NewViper creates a new viper instance configured.
func NewViper() *viper.Viper {
	vp := viper.New()

	// read config from a file
	vp.SetConfigName("config") // name of config file (without extension)
	vp.SetConfigType("yaml")   // useful if the given config file does not have the extension in the name
	vp.AddConfigPath(".")      // look for a config in the working directory first

	// read config from environment variables
	vp.SetEnvPrefix("seecov") // env var must start with SEECOV_
	// replace - by _ for environment variable names
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vp.AutomaticEnv() // read in environment variables that match

	// 配置文件可缺省
	_ = vp.ReadInConfig()
	return vp
}

func New(vp *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "seecov",
		Short: "seecov",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config.ApplyLogLevel()
			if config.Debug {
				logrus.Info("enabled debug mode")
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&config.Debug, "debug", false, "Enable debug mode")
	return root
}

func Execute() {
	// 全局初始化 VP 配置
	vp := NewViper()

	root := New(vp)
	root.AddCommand(replay.New(vp))
	root.AddCommand(report.New(vp))

	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
