package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"thumbcache"
)

var (
	flagSize     string
	flagCacheDir string
	flagTimeout  time.Duration
	flagFallback bool
)

func newGenerator() (*thumbcache.Generator, error) {
	opts := []thumbcache.Option{
		thumbcache.WithBuiltinFallback(flagFallback),
	}
	if flagCacheDir != "" {
		opts = append(opts, thumbcache.WithCacheDir(flagCacheDir))
	}
	if flagTimeout > 0 {
		opts = append(opts, thumbcache.WithExecTimeout(flagTimeout))
	}
	return thumbcache.New(opts...)
}

func parseTier() (thumbcache.SizeTier, error) {
	return thumbcache.ParseSizeTier(flagSize)
}

func main() {
	root := &cobra.Command{
		Use:           "thumbcache",
		Short:         "Generate and inspect freedesktop-style thumbnails",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "override the thumbnail cache root")
	root.PersistentFlags().StringVarP(&flagSize, "size", "s", "normal", "size tier (small, normal, large, x-large, xx-large)")

	getCmd := &cobra.Command{
		Use:   "get <file>",
		Short: "Generate a thumbnail (or reuse a fresh one) and print its cache path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := parseTier()
			if err != nil {
				return err
			}
			gen, err := newGenerator()
			if err != nil {
				return err
			}
			path, err := gen.Generate(cmd.Context(), args[0], tier)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	getCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per-thumbnailer execution timeout")
	getCmd.Flags().BoolVar(&flagFallback, "builtin-fallback", false, "scale common image types in-process when no thumbnailer matches")

	infoCmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Print the embedded metadata of a file's cached thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := parseTier()
			if err != nil {
				return err
			}
			gen, err := newGenerator()
			if err != nil {
				return err
			}
			cached, ok := gen.Lookup(args[0], tier)
			if !ok {
				return fmt.Errorf("no fresh %s thumbnail cached for %s", tier, args[0])
			}
			pairs, err := thumbcache.Metadata(cached)
			if err != nil {
				return err
			}
			fmt.Println(cached)
			for _, p := range pairs {
				fmt.Printf("%s=%s\n", p.Key, p.Value)
			}
			return nil
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup <file>",
		Short: "Remove all cached thumbnails and the failure marker for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := newGenerator()
			if err != nil {
				return err
			}
			return gen.Invalidate(args[0])
		},
	}

	root.AddCommand(getCmd, infoCmd, cleanupCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
