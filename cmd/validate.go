package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/pktforge/internal/config"
	"firestige.xyz/pktforge/internal/craft"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a packet recipe",
	Long: `Validate a recipe file (YAML or JSON) and build its first packet without
writing anything. The configuration file given with -c is validated as well.

Examples:
  pktforge validate -f sip-options.yaml
  pktforge -c pktforge.yml validate -f probe.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidateCommand(cmd)
	},
}

var validateRecipeFile string

func init() {
	validateCmd.Flags().StringVarP(&validateRecipeFile, "file", "f", "",
		"recipe file to validate (required)")
	validateCmd.MarkFlagRequired("file")
}

func runValidateCommand(cmd *cobra.Command) error {
	recipe, err := config.LoadRecipe(validateRecipeFile)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "INVALID: %v\n", err)
		return err
	}
	p, err := craft.NewBuilder(cfg.BufferOptions(allocator)).BuildOne(recipe)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "INVALID: %v\n", err)
		return err
	}
	defer p.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "VALID: recipe %q: %d layer(s), %d byte(s), %d packet(s)\n",
		recipe.Name, p.Count(), p.Len(), recipe.Count)
	return nil
}
