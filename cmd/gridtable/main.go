// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// gridtable is a command line tool for electricity market data tables:
// fetch datasets from the API or load them from CSV, then filter,
// group, sort, describe and export them.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gopkg.in/yaml.v3"

	"gridtable/client"
)

// appEnv carries the application-level flags shared by the commands.
type appEnv struct {
	logLevel   *string
	configPath *string
	addr       *string
	apiKey     *string
}

func (e *appEnv) logger() log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	switch *e.logLevel {
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowWarn())
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC)
}

// apiClient builds the API client from the configuration file, with
// command line overrides applied on top.
func (e *appEnv) apiClient() (*client.Client, error) {
	var cfg client.Config
	if *e.configPath != "" {
		raw, err := os.ReadFile(*e.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if *e.addr != "" {
		cfg.BaseURL = *e.addr
	}
	if *e.apiKey != "" {
		cfg.APIKey = *e.apiKey
	}
	cfg.Logger = e.logger()
	return client.New(cfg)
}

func main() {
	app := kingpin.New("gridtable", "Work with electricity market data tables: fetch, filter, group, describe and export.")
	app.HelpFlag.Short('h')

	env := &appEnv{}
	env.logLevel = app.Flag("log-level", "Log level: debug, info, warn or error.").Default("warn").Enum("debug", "info", "warn", "error")
	env.configPath = app.Flag("config", "Path to a YAML client configuration file.").Short('c').String()
	env.addr = app.Flag("addr", "Base URL of the data API, overrides the configuration file.").Envar("GRIDTABLE_ADDR").String()
	env.apiKey = app.Flag("api-key", "API key for the data API, overrides the configuration file.").Envar("GRIDTABLE_API_KEY").String()

	addFetchCommand(app, env)
	addDescribeCommand(app, env)
	addGroupCommand(app, env)
	addNetworksCommand(app)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}
