package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var quiet bool

var uploadCmd = &cobra.Command{
	Use:   "upload [file-path]",
	Short: "Upload a file: encrypt, erasure-code, and distribute shards across healthy nodes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		manifestPath, err := orch.UploadFile(context.Background(), args[0], quiet)
		if err != nil {
			fmt.Printf("Error uploading file: %v\n", err)
			return
		}
		fmt.Printf("File uploaded successfully: manifest written to %s\n", manifestPath)
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [manifest-path] [output-path]",
	Short: "Download a file: retrieve shards, verify integrity, and reconstruct",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		outputPath := ""
		if len(args) == 2 {
			outputPath = args[1]
		}
		path, err := orch.DownloadFile(context.Background(), args[0], outputPath, quiet)
		if err != nil {
			fmt.Printf("Error downloading file: %v\n", err)
			return
		}
		fmt.Printf("File downloaded successfully: %s\n", path)
	},
}

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Storage node management commands",
}

var nodeHealthCmd = &cobra.Command{
	Use:   "health [node-url]",
	Short: "Check whether a configured storage node is reachable",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		healthy := orch.CheckNodeHealth(context.Background(), args[0])
		if healthy {
			fmt.Printf("%s: healthy\n", args[0])
		} else {
			fmt.Printf("%s: unreachable\n", args[0])
		}
	},
}

func init() {
	uploadCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress per-shard progress bars")
	downloadCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress per-shard progress bars")

	nodeCmd.AddCommand(nodeHealthCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(nodeCmd)
}
