// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command mattermost-onboarding-bot is a Mattermost bot that greets new
// channel members and creates user accounts from an interactive form.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"go.mau.fi/util/exerrors"
	"go.mau.fi/util/exhttp"
	"go.mau.fi/util/exzerolog"
	flag "maunium.net/go/mauflag"

	"github.com/aiku/mattermost-onboarding-bot/pkg/activity"
	"github.com/aiku/mattermost-onboarding-bot/pkg/bot"
	"github.com/aiku/mattermost-onboarding-bot/pkg/connector"
	"github.com/aiku/mattermost-onboarding-bot/pkg/credential"
	"github.com/aiku/mattermost-onboarding-bot/pkg/messages"
	"github.com/aiku/mattermost-onboarding-bot/pkg/provisioning"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const (
	Name    = "mattermost-onboarding-bot"
	Version = "0.1.0"
)

var configPath = flag.MakeFull("c", "config", "The path to your config file.", "config.yaml").String()
var writeExampleConfig = flag.MakeFull("e", "generate-example-config", "Save the example config to the config path and quit.", "false").Bool()
var dontSaveConfig = flag.MakeFull("n", "no-update", "Don't save updated config to disk.", "false").Bool()
var version = flag.MakeFull("v", "version", "View bot version and quit.", "false").Bool()
var wantHelp, _ = flag.MakeHelpFlag()

func main() {
	flag.SetHelpTitles(
		Name+" - A Mattermost onboarding bot.",
		Name+" [-hnev] [-c <path>]",
	)
	err := flag.Parse()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		flag.PrintHelp()
		os.Exit(1)
	} else if *wantHelp {
		flag.PrintHelp()
		os.Exit(0)
	} else if *version {
		fmt.Printf("%s %s (tag %s, commit %s, built at %s)\n", Name, Version, Tag, Commit, BuildTime)
		os.Exit(0)
	} else if *writeExampleConfig {
		if err = os.WriteFile(*configPath, []byte(connector.ExampleConfig), 0o600); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "Failed to write example config:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote example config to", *configPath)
		os.Exit(0)
	}

	cfg, err := connector.LoadConfig(*configPath, !*dontSaveConfig)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(10)
	}
	log, err := cfg.Logging.Compile()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(11)
	}
	exzerolog.SetupDefaults(log)
	log.Info().
		Str("version", Version).
		Str("tag", Tag).
		Str("commit", Commit).
		Str("provisioning_strategy", cfg.Provisioning.Strategy).
		Msg("Initializing " + Name)

	os.Exit(run(cfg, *log))
}

func run(cfg *connector.Config, log zerolog.Logger) int {
	hasher := credential.NewHasher()
	if err := hasher.SelfTest(); err != nil {
		log.Error().Err(err).Msg("Password hashing is unavailable")
		return 12
	}
	renderer := exerrors.Must(messages.NewRenderer())

	conn := connector.New(cfg, log)
	messenger := conn.Messenger(renderer)
	creator := provisioning.NewClient(newTransport(cfg, conn, log), hasher, cfg.Provisioning.Timeout(), log)

	b := bot.New(messenger, messenger, creator, cfg.Provisioning.RequiredFields, log)
	registry := &activity.Registry{}
	b.Register(registry)
	dispatcher := activity.NewDispatcher(registry, messenger, log)
	feed := connector.NewFeed(cfg.Feed.QueueSize, dispatcher, b.Welcomer(), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go feed.Run(ctx)

	if err := conn.Start(ctx, feed); err != nil {
		log.Error().Err(err).Msg("Failed to start connector")
		return 13
	}
	log.Info().Int("handlers", registry.Len()).Msg("Bot started")

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	conn.Stop()
	<-feed.Done()
	return 0
}

func newTransport(cfg *connector.Config, conn *connector.Connector, log zerolog.Logger) provisioning.Transport {
	switch cfg.Provisioning.Strategy {
	case connector.StrategyMattermost:
		return provisioning.NewMattermostTransport(conn.Client(), log)
	default:
		client := exhttp.SensibleClientSettings.WithGlobalTimeout(cfg.Provisioning.Timeout()).Compile()
		return provisioning.NewHTTPTransport(
			cfg.Provisioning.BaseURL,
			cfg.Provisioning.CreatePath,
			provisioning.StaticToken(cfg.Provisioning.SessionToken),
			client,
		)
	}
}
