// Command shardmesh is the demonstration CLI driving the orchestrator:
// upload, download, and node-health operations over a pool of storage
// nodes speaking the BlobStore HTTP contract.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/shardmesh/shardmesh/internal/config"
	"github.com/shardmesh/shardmesh/internal/cryptutil"
	"github.com/shardmesh/shardmesh/internal/erasure"
	"github.com/shardmesh/shardmesh/internal/logging"
	"github.com/shardmesh/shardmesh/internal/nodepool"
	"github.com/shardmesh/shardmesh/internal/orchestrator"
	"github.com/shardmesh/shardmesh/internal/vault"
)

var (
	cfg    *config.Config
	orch   *orchestrator.Orchestrator
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "shardmesh",
	Short: "CLI for the decentralized erasure-coded storage gateway",
	Long:  "A CLI application for uploading, downloading, and checking the health of nodes in a shardmesh storage pool",
}

func init() {
	cobra.OnInitialize(initConfig)
	setupFlags()
}

func setupFlags() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (YAML with node_urls, metadata_dir, download_dir)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("error loading configuration: %v", err)
	}
	if f := rootCmd.PersistentFlags().Lookup("log-level"); f != nil && f.Changed {
		cfg.LogLevel = f.Value.String()
	}

	logging.InitLogger(cfg)

	cipher := cryptutil.NewFernetCipher()
	codec := erasure.NewReedSolomonCodec()

	var masterKey []byte
	if cfg.MasterVaultKey != "" {
		masterKey = []byte(cfg.MasterVaultKey)
	}

	mv, err := vault.NewMetadataVault(cipher, masterKey)
	if err != nil {
		log.Fatalf("error initializing metadata vault: %v", err)
	}

	pool := nodepool.NewPool(cfg.NodeURLs)
	orch = orchestrator.New(pool, cipher, codec, mv, cfg.MetadataDir, cfg.DownloadDir, cfg.Concurrency)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
