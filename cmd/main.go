// Copyright 2025.
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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Qingbolan/Print-SoC/internal/adapters/catalog"
	"github.com/Qingbolan/Print-SoC/internal/adapters/data/file"
	"github.com/Qingbolan/Print-SoC/internal/adapters/pdf"
	"github.com/Qingbolan/Print-SoC/internal/adapters/session"
	"github.com/Qingbolan/Print-SoC/internal/config"
	"github.com/Qingbolan/Print-SoC/internal/core/ports"
	"github.com/Qingbolan/Print-SoC/internal/core/services"
	"github.com/Qingbolan/Print-SoC/internal/logger"
)

const appName = "printsoc"

var (
	version   = "develop"
	gitCommit = "unknown"

	// Command-line flags
	configPath string
)

// app holds the long-lived components shared across commands: one session
// manager, one registry, one durable store. It is built in the root
// command's PersistentPreRunE, after flags are parsed.
type app struct {
	cfg      *config.Config
	dirs     file.DataDirs
	registry *services.Registry
	sessions *session.Manager
	jobs     services.JobService
	poller   services.QueueReconciler
	catalog  ports.PrinterCatalog
	log      *zap.SugaredLogger
}

func main() {
	log, err := logger.New("PRINTSOC")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	//nolint:errcheck // log.Sync may return an error which is safe to ignore here
	defer log.Sync()

	a := &app{log: log}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Remote print queue client for the SoC cluster",
		Version: fmt.Sprintf("%s (%s)", version, gitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (default: <user config dir>/printsoc/config.yaml)")

	rootCmd.AddCommand(
		newConnectCmd(a),
		newDisconnectCmd(a),
		newStatusCmd(a),
		newPrintersCmd(a),
		newSubmitCmd(a),
		newJobsCmd(a),
		newJobCmd(a),
		newCancelCmd(a),
		newDeleteCmd(a),
		newCheckCmd(a),
		newWatchCmd(a),
		newCleanupCmd(a),
		newStorageCmd(a),
	)

	err = rootCmd.Execute()

	// Flush mutations that opportunistic saves may have missed.
	if a.registry != nil {
		if saveErr := a.registry.SaveIfDirty(); saveErr != nil {
			log.Errorw("failed to save job history on exit", "error", saveErr)
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		//nolint:gocritic // exitAfterDefer: non-zero exit must reach the shell
		os.Exit(1)
	}
}

func (a *app) init() error {
	path := configPath
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("failed to locate config directory: %w", err)
		}
		path = filepath.Join(base, appName, "config.yaml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var dirs file.DataDirs
	if cfg.Storage.DataDir != "" {
		dirs = file.NewDataDirs(cfg.Storage.DataDir)
	} else {
		dirs, err = file.DefaultDataDirs()
		if err != nil {
			return err
		}
	}
	if err := dirs.Ensure(); err != nil {
		return fmt.Errorf("failed to create data directories: %w", err)
	}

	store := file.NewJobStore(a.log, dirs.HistoryFile())
	registry := services.NewRegistry(a.log, store)
	if err := registry.Load(); err != nil {
		return err
	}

	sessions := session.NewManager(a.log)
	backups := file.NewBackupStore(a.log, dirs.Backups)
	transformer := pdf.NewTransformer(a.log)

	a.cfg = cfg
	a.dirs = dirs
	a.registry = registry
	a.sessions = sessions
	a.jobs = services.NewJobService(a.log, registry, sessions, backups, transformer)
	a.poller = services.NewReconciler(a.log, registry, sessions)
	a.catalog = catalog.NewCatalog(a.log, cfg.Catalog.Path)
	return nil
}
