// Command imagefilter runs the filter engine on image files.
//
//	imagefilter adjust photo.jpg --brighten 20 --contrast 15 -o out.png
//	imagefilter pattern photo.jpg --pattern circle
//	imagefilter bands photo.jpg --colors "255,0,0,120;0,0,255,120" --direction vertical
//	imagefilter save photo.jpg ./exports
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	imagefilter "github.com/Skryldev/image-filter"
	"github.com/Skryldev/image-filter/config"
	"github.com/Skryldev/image-filter/hooks"
)

var rootCmd = &cobra.Command{
	Use:               "imagefilter",
	Short:             "Apply adjustments and overlay filters to images",
	SilenceUsage:      true,
	PersistentPreRunE: appPersistentPreRun,
}

var (
	configPath string
	logLevel   string
	base64In   bool
	base64Out  bool
	outputPath string

	cfg  config.Config
	proc *imagefilter.Processor
)

// setupHooks lets optional backends register themselves on the processor.
var setupHooks []func(*imagefilter.Processor) (cleanup func(), err error)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "level", "l", "", "Log level")
	rootCmd.PersistentFlags().BoolVar(&base64In, "base64", false, "Input file holds base64 text")
	rootCmd.PersistentFlags().BoolVar(&base64Out, "base64-out", false, "Write the result as base64 text")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "-", "Output file, - for stdout")
}

func appPersistentPreRun(_ *cobra.Command, _ []string) error {
	var err error
	if cfg, err = config.Load(configPath); err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)
	log.WithField("log_level", lvl).Debug()

	proc = imagefilter.New(cfg)
	logger := hooks.NewLogrusLogger(log.StandardLogger())
	proc.SetLogger(logger)
	proc.AddHook(hooks.NewLoggingHook(logger))

	for _, setup := range setupHooks {
		cleanup, err := setup(proc)
		if err != nil {
			return err
		}
		if cleanup != nil {
			cobra.OnFinalize(cleanup)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
