/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suriview/suriview/internal/logger"
	"github.com/suriview/suriview/internal/metrics"
	"github.com/suriview/suriview/internal/profiler"
	"github.com/suriview/suriview/internal/service"
	"github.com/suriview/suriview/internal/sink"
	"github.com/suriview/suriview/internal/source"
	"github.com/suriview/suriview/internal/transform"
)

type Options struct {
	logLevel            string
	logFormat           string
	listenAddress       string
	rulesConfig         string
	dataDirectory       string
	transformsDirectory string
	profilerAddress     string
	sink                sink.Config
}

var options = Options{}

var (
	validLogLevels  = logger.Levels
	validLogFormats = logger.Formats
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the rule browsing API",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateOptions()
	},
	Run: func(cmd *cobra.Command, args []string) {
		l, err := logger.NewLogger(options.logLevel, options.logFormat)
		if err != nil {
			cobra.CheckErr(fmt.Sprintf("Failed to create logger: %v", err))
		}

		s, err := sink.NewSink(&options.sink)
		if err != nil {
			cobra.CheckErr(fmt.Sprintf("failed to initialize sink: %v", err))
		}

		sources, err := source.Load(options.rulesConfig)
		if err != nil {
			cobra.CheckErr(fmt.Sprintf("failed to load rule sources: %v", err))
		}

		fetcher, err := source.NewFetcher(options.dataDirectory, l.Logger)
		if err != nil {
			cobra.CheckErr(fmt.Sprintf("failed to prepare data directory: %v", err))
		}
		loader := source.NewLoader(sources, fetcher, l.Logger)

		store, err := transform.NewStore(options.transformsDirectory)
		if err != nil {
			cobra.CheckErr(fmt.Sprintf("failed to prepare transforms directory: %v", err))
		}

		if options.profilerAddress != "" {
			p := profiler.NewProfiler(options.profilerAddress)
			if err := p.Start(); err != nil {
				cobra.CheckErr(fmt.Sprintf("failed to start profiler: %v", err))
			}
			defer func() {
				_ = p.Stop()
			}()
		}

		m := metrics.New(nil)

		svc, err := service.NewService(l, s, loader, store, m, options.listenAddress, len(sources))
		cobra.CheckErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if tranquil := svc.Run(ctx); !tranquil {
			os.Exit(1)
		}
	},
}

func validateOptions() error {
	if err := validateStringFlag("log.level", options.logLevel, validLogLevels); err != nil {
		return err
	}
	if err := validateStringFlag("log.format", options.logFormat, validLogFormats); err != nil {
		return err
	}
	if options.sink.Syslog.Enable {
		if err := validateStringFlag("sink.syslog.address", options.sink.Syslog.Address, []string{}); err != nil {
			return err
		}
	}
	if options.sink.Loki.Enable {
		if err := validateStringFlag("sink.loki.address", options.sink.Loki.Address, []string{}); err != nil {
			return err
		}
	}
	if options.sink.Stream.Enable {
		if err := validateStringFlag("sink.stream.writer", options.sink.Stream.Writer, sink.StreamWriters); err != nil {
			return err
		}
	}
	return nil
}

// validateStringFlag checks a flag value against its allowed set, or
// against the address syntax the flag name implies when no set is
// given.
func validateStringFlag(name, value string, valid []string) error {
	if len(valid) > 0 {
		if !slices.Contains(valid, value) {
			return fmt.Errorf("invalid %s %q, must be one of: %s", name, value, strings.Join(valid, ", "))
		}
		return nil
	}

	switch name {
	case "sink.syslog.address":
		uri, err := url.Parse(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %v", name, value, err)
		}
		schemes := []string{"udp", "tcp", "unix", "unixgram", "unixpacket"}
		if !slices.Contains(schemes, uri.Scheme) {
			return fmt.Errorf("invalid %s %q, scheme must be one of: %s", name, value, strings.Join(schemes, ", "))
		}
		if strings.HasPrefix(uri.Scheme, "unix") {
			if uri.Path == "" {
				return fmt.Errorf("invalid %s %q, missing socket path", name, value)
			}
		} else if uri.Host == "" {
			return fmt.Errorf("invalid %s %q, missing host", name, value)
		}
	case "sink.loki.address":
		uri, err := url.Parse(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %v", name, value, err)
		}
		if !slices.Contains(sink.LokiProtocols, uri.Scheme) {
			return fmt.Errorf("invalid %s %q, scheme must be one of: %s", name, value, strings.Join(sink.LokiProtocols, ", "))
		}
		if uri.Host == "" {
			return fmt.Errorf("invalid %s %q, missing host", name, value)
		}
	}
	return nil
}

func init() {
	serveCmd.CompletionOptions.SetDefaultShellCompDirective(cobra.ShellCompDirectiveNoFileComp)

	serveCmd.Flags().StringVar(&options.logLevel, "log.level", "info", fmt.Sprintf("Log level (%s)", strings.Join(logger.Levels, ", ")))
	_ = serveCmd.RegisterFlagCompletionFunc("log.level", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return logger.Levels, cobra.ShellCompDirectiveNoFileComp
	})

	serveCmd.Flags().StringVar(&options.logFormat, "log.format", "json", fmt.Sprintf("Log format (%s)", strings.Join(logger.Formats, ", ")))
	_ = serveCmd.RegisterFlagCompletionFunc("log.format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return logger.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	serveCmd.Flags().StringVar(&options.listenAddress, "listen.address", ":8080", "API listen address")
	serveCmd.Flags().StringVar(&options.rulesConfig, "rules.config", "/etc/suriview/rules.yaml", "Path to rule sources file")
	serveCmd.Flags().StringVar(&options.dataDirectory, "data.directory", "/var/lib/suriview/cache", "Directory for downloaded rule archives")
	serveCmd.Flags().StringVar(&options.transformsDirectory, "transforms.directory", "/var/lib/suriview/transforms", "Directory for stored transforms")
	serveCmd.Flags().StringVar(&options.profilerAddress, "profiler.address", "", "Pyroscope server address")

	serveCmd.Flags().BoolVar(&options.sink.Journal.Enable, "sink.journal.enable", false, "Enable journald sink")
	serveCmd.Flags().BoolVar(&options.sink.Syslog.Enable, "sink.syslog.enable", false, "Enable syslog sink")
	serveCmd.Flags().StringVar(&options.sink.Syslog.Address, "sink.syslog.address", "udp://localhost:514", "Syslog address")

	serveCmd.Flags().BoolVar(&options.sink.Loki.Enable, "sink.loki.enable", false, "Enable Loki sink")
	serveCmd.Flags().StringVar(&options.sink.Loki.Address, "sink.loki.address", "http://localhost:3100", "Loki address")
	serveCmd.Flags().StringSliceVar(&options.sink.Loki.Labels, "sink.loki.labels", nil, "Additional labels for Loki sink in key=value format")

	serveCmd.Flags().BoolVar(&options.sink.Stream.Enable, "sink.stream.enable", true, "Enable stream sink")
	serveCmd.Flags().StringVar(&options.sink.Stream.Writer, "sink.stream.writer", "stderr", fmt.Sprintf("Stream writer (%s)", strings.Join(sink.StreamWriters, ", ")))
	_ = serveCmd.RegisterFlagCompletionFunc("sink.stream.writer", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return sink.StreamWriters, cobra.ShellCompDirectiveNoFileComp
	})

	_ = viper.BindPFlags(serveCmd.Flags())
}
