package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/pktforge/internal/capture"
	"firestige.xyz/pktforge/internal/config"
	"firestige.xyz/pktforge/internal/craft"
	"firestige.xyz/pktforge/internal/log"
)

var craftCmd = &cobra.Command{
	Use:   "craft",
	Short: "Build packets from a recipe and write them to a capture file",
	Long: `Build the packets a recipe describes and write them to a pcap or pcapng
file. Length and checksum fields are computed from the layers.

Examples:
  pktforge craft -r sip-options.yaml -o sip.pcap
  pktforge craft -r probe.json -o probe.pcapng --format pcapng`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCraftCommand(cmd)
	},
}

var (
	craftRecipeFile string
	craftOutput     string
	craftFormat     string
)

func init() {
	craftCmd.Flags().StringVarP(&craftRecipeFile, "recipe", "r", "", "recipe file (required)")
	craftCmd.Flags().StringVarP(&craftOutput, "output", "o", "", "output capture file (required)")
	craftCmd.Flags().StringVar(&craftFormat, "format", "", "pcap or pcapng (overrides capture.format)")
	craftCmd.MarkFlagRequired("recipe")
	craftCmd.MarkFlagRequired("output")
}

func runCraftCommand(cmd *cobra.Command) error {
	recipe, err := config.LoadRecipe(craftRecipeFile)
	if err != nil {
		return err
	}
	format := cfg.Capture.Format
	if craftFormat != "" {
		format = craftFormat
	}
	f, err := capture.ParseFormat(format)
	if err != nil {
		return err
	}
	lt, err := config.ParseLinkType(recipe.LinkType)
	if err != nil {
		return err
	}

	packets, err := craft.NewBuilder(cfg.BufferOptions(allocator)).Build(recipe)
	if err != nil {
		return fmt.Errorf("build recipe: %w", err)
	}
	defer func() {
		for _, p := range packets {
			_ = p.Close()
		}
	}()

	sink, err := capture.CreateFile(craftOutput, f, lt)
	if err != nil {
		return err
	}
	for _, p := range packets {
		if err := sink.Send(p); err != nil {
			sink.Close()
			return err
		}
	}
	if err := sink.Close(); err != nil {
		return err
	}

	log.GetLogger().WithField("output", craftOutput).WithField("packets", sink.Sent()).Info("recipe crafted")
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d packet(s) to %s (%s)\n", sink.Sent(), craftOutput, f)
	return nil
}
